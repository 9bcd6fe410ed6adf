package deflate_test

import (
	"fmt"

	"github.com/axiomhq/deflate"
)

func Example() {
	cache := deflate.NewCache()
	input := []byte("Hello world, this is a wonderful world !")

	encoded := deflate.ZlibEncode(input, deflate.BlockTypeDynamic, cache)
	decoded, err := deflate.ZlibDecode(encoded, cache)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(decoded))
	// Output:
	// Hello world, this is a wonderful world !
}

func ExampleInflate() {
	cache := deflate.NewCache()

	compressed := deflate.Deflate([]byte("abcabcabc"), deflate.BlockTypeFixed, cache)
	restored, err := deflate.Inflate(compressed, cache)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(restored))
	// Output:
	// abcabcabc
}
