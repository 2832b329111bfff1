package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/vetta/internal/config"
)

var configShowSecrets bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change vetta's configuration.

Values are read from the environment first (VETTA_<KEY>, e.g. VETTA_HTTP_TIMEOUT),
then from config.toml, then from the vendor variables such as APIFY_API_TOKEN.`,
	Annotations: map[string]string{annotationNeeds: needsConfig},
	RunE:        runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show every configuration key and its current value",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNeeds: needsConfig},
	RunE:        runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:         "get <key>",
	Short:       "Print one configuration value",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNeeds: needsConfig},
	RunE:        runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:         "set <key> <value>",
	Short:       "Set a configuration value",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationNeeds: needsConfig},
	RunE:        runConfigSet,
}

var configLoginCmd = &cobra.Command{
	Use:         "login",
	Short:       "Store credentials for the credit risk portal",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNeeds: needsConfig},
	RunE:        runConfigLogin,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the configuration file path",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNeeds: needsConfig},
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), configStore.Path())
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowSecrets, "show-secrets", false, "print secrets unmasked")
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd, configLoginCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE\tDESCRIPTION")
	for _, k := range config.Keys {
		fmt.Fprintf(w, "%s\t%s\t%s\n", k.Name, displayValue(k), k.Description)
	}

	// Keys in the file that vetta does not read, usually typos.
	for _, name := range configStore.Keys() {
		if _, ok := config.LookupKey(name); ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, valueString(name), "(unknown key)")
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), style.Muted.Render("file: "+configStore.Path()))
	return nil
}

func displayValue(k config.Key) string {
	v := valueString(k.Name)
	switch {
	case v == "" && k.Default != "":
		return style.Muted.Render(k.Default + " (default)")
	case v == "":
		return style.Muted.Render("(not set)")
	case k.Secret && !configShowSecrets:
		return maskAPIKey(v)
	default:
		return v
	}
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	v := valueString(key)
	if v == "" {
		k, ok := config.LookupKey(key)
		if !ok {
			return errors.Newf("%s is not set", key)
		}
		v = k.Default
	}
	fmt.Fprintln(cmd.OutOrStdout(), v)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if _, ok := config.LookupKey(key); !ok {
		return errors.WithHint(errors.Newf("unknown configuration key %q", key),
			"run 'vetta config show' to list keys")
	}

	if err := configStore.Set(key, value); err != nil {
		return errors.Wrap(err, "set value")
	}
	if _, err := config.Load(configStore); err != nil {
		return err
	}
	if err := configStore.Save(); err != nil {
		return errors.Wrap(err, "save configuration")
	}

	k, _ := config.LookupKey(key)
	shown := value
	if k.Secret {
		shown = maskAPIKey(value)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, shown)
	return nil
}

func runConfigLogin(cmd *cobra.Command, _ []string) error {
	in := cmd.InOrStdin()
	reader := bufio.NewReader(in)
	out := cmd.OutOrStdout()

	current := configStore.GetString(config.KeyRiskEmail)
	if current != "" {
		fmt.Fprintf(out, "Email [%s]: ", current)
	} else {
		fmt.Fprint(out, "Email: ")
	}
	email := readLine(reader)
	if email == "" {
		email = current
	}
	if email == "" {
		return errors.New("an email address is required")
	}

	fmt.Fprint(out, "Password: ")
	password := readPassword(in, reader)
	fmt.Fprintln(out)
	if password == "" {
		return errors.New("a password is required")
	}

	if err := configStore.Set(config.KeyRiskEmail, email); err != nil {
		return errors.Wrap(err, "set email")
	}
	if err := configStore.Set(config.KeyRiskPassword, password); err != nil {
		return errors.Wrap(err, "set password")
	}
	if err := configStore.Save(); err != nil {
		return errors.Wrap(err, "save configuration")
	}
	fmt.Fprintf(out, "Credentials saved to %s\n", configStore.Path())
	return nil
}

// valueString renders any stored value, including TOML numbers and arrays.
func valueString(key string) string {
	v, ok := configStore.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(t, ",")
	default:
		return fmt.Sprint(t)
	}
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readPassword reads without echo when in is a terminal, else a plain line.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
