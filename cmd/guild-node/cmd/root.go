package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "GUILD"

var (
	flagConfig   string
	flagLogLevel string
	log          zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "guild-node",
	Short: "Run a guild ledger with its oracle operators and manage allowlists",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(flagLogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log = log.Level(level)
		return nil
	},
	SilenceUsage: true,
}

var RootCmd = rootCmd

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "",
		"path to a config file (yaml, json or toml) whose keys match the flag names")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "loglevel", "info", "level for logging output")

	log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	cobra.OnInitialize(initConfig)
}

// initConfig layers the config file and GUILD_ environment variables
// below explicitly set flags.
func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if flagConfig == "" {
		return
	}
	viper.SetConfigFile(flagConfig)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal().Err(err).Str("config", flagConfig).Msg("could not read config file")
	}
	log.Info().Str("config", viper.ConfigFileUsed()).Msg("config file loaded")
}

// bindFlags makes every flag of the set resolvable through viper.
func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(flag *pflag.Flag) {
		if err := viper.BindPFlag(flag.Name, flag); err != nil {
			log.Fatal().Err(err).Str("flag", flag.Name).Msg("could not bind flag")
		}
	})
}
