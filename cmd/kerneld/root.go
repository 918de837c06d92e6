package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cfgFile holds the path to the configuration file given via --config. When
// empty, initConfig searches $HOME/.kerneld.yaml then ./.kerneld.yaml.
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "kerneld",
	Short: "kernel, forward proxy, dictionary and hotkey engine",
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.kerneld.yaml)")
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(dictCmd)
	rootCmd.AddCommand(geositeCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".kerneld")
	}

	viper.SetEnvPrefix("KERNELD")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}
