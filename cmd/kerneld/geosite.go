package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kerneld-io/kerneld/internal/geosite"
	"github.com/kerneld-io/kerneld/internal/kerrors"
)

var geositeCmd = &cobra.Command{
	Use:   "geosite",
	Short: "edit the persisted geosite overlay used by geosite:<tag> routing targets",
}

var geositeAddCmd = &cobra.Command{
	Use:   "add-target <tag> <domain>",
	Short: "add a domain to a geosite tag's overlay",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGeositeStore(func(s *geosite.Store) error {
			return s.AddTarget(args[0], args[1])
		})
	},
}

var geositeRemoveCmd = &cobra.Command{
	Use:   "remove-target <tag> <domain>",
	Short: "remove a domain from a geosite tag, suppressing it even if present in the base list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGeositeStore(func(s *geosite.Store) error {
			return s.RemoveTarget(args[0], args[1])
		})
	},
}

func init() {
	geositeCmd.AddCommand(geositeAddCmd)
	geositeCmd.AddCommand(geositeRemoveCmd)
}

func withGeositeStore(fn func(*geosite.Store) error) error {
	dbPath := viper.GetString("geosite.db")
	if dbPath == "" {
		return kerrors.New(kerrors.Parse, "geosite: no geosite.db configured")
	}

	var list *geosite.SiteGroupList
	if src := viper.GetString("geosite.source"); src != "" {
		data, err := os.ReadFile(src)
		if err != nil {
			return kerrors.Wrap(err, "geosite: reading source %s", src)
		}
		list, err = geosite.Parse(data)
		if err != nil {
			return kerrors.Wrap(err, "geosite: parsing source %s", src)
		}
	} else {
		list = &geosite.SiteGroupList{}
	}

	store, err := geosite.Open(dbPath, list)
	if err != nil {
		return kerrors.Wrap(err, "geosite: opening store %s", dbPath)
	}
	defer store.Close()

	if err := fn(store); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}
