package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kerneld-io/kerneld/internal/kerrors"
	"github.com/kerneld-io/kerneld/internal/mdx"
)

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "one-shot dictionary lookups against configured MDX archives",
}

var dictLookupCmd = &cobra.Command{
	Use:   "lookup <word>",
	Short: "look up a word across every configured dictionary",
	Args:  cobra.ExactArgs(1),
	RunE:  runDictLookup,
}

func init() {
	dictCmd.AddCommand(dictLookupCmd)
}

func runDictLookup(cmd *cobra.Command, args []string) error {
	var paths []string
	if err := viper.UnmarshalKey("dictionaries", &paths); err != nil {
		return kerrors.Wrap(err, "dict lookup: parsing configuration")
	}
	if len(paths) == 0 {
		return kerrors.New(kerrors.Parse, "dict lookup: no dictionaries configured")
	}

	svc, err := mdx.OpenService(paths)
	if err != nil {
		return err
	}

	word := args[0]
	results, err := svc.Lookup(word)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("no entries found for %q\n", word)
		return nil
	}
	for _, r := range results {
		fmt.Printf("%s\n%s\n\n", r.Keyword, r.Text)
	}
	return nil
}
