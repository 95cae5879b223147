package config_test

import (
	"fmt"

	"github.com/wonny/universe/pkg/config"
)

// ExampleFeed shows how a feed's upstream field names are looked up
func ExampleFeed() {
	m, err := config.Feed(config.DefaultFeeds(), "daily")
	if err != nil {
		fmt.Println(err)
		return
	}

	for _, c := range config.CanonicalFields {
		fmt.Printf("%s <- %s\n", c, m.Fields[c])
	}
	fmt.Println("numeric strings:", m.NumericStrings)

	_, err = config.Feed(config.DefaultFeeds(), "kite")
	fmt.Println(err)

	// Output:
	// open <- dayOpen
	// high <- dayHigh
	// low <- dayLow
	// close <- dayClose
	// volume <- dayVolume
	// numeric strings: true
	// unknown feed "kite" (known: [daily strike])
}
