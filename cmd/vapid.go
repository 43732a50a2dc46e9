package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var flagEnvFile string

var vapidCmd = &cobra.Command{
	Use:   "vapid",
	Short: "Generate VAPID keys and write them to the env file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		priv, pub, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			return fmt.Errorf("generate VAPID keys: %w", err)
		}
		if err := updateEnvFile(flagEnvFile, map[string]string{
			"VAPID_PRIVATE_KEY": priv,
			"VAPID_PUBLIC_KEY":  pub,
		}); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "VAPID keys generated!")
		fmt.Fprintf(out, "  Public key (applicationServerKey): %s\n", pub)
		fmt.Fprintf(out, "  Written to: %s\n", flagEnvFile)
		return nil
	},
}

func init() {
	vapidCmd.Flags().StringVar(&flagEnvFile, "env-file", ".env", "Env file to update")
}

// updateEnvFile merges values into path. A missing file is seeded from the .env.example
// next to it when one exists.
func updateEnvFile(path string, values map[string]string) error {
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		env, err = godotenv.Read(filepath.Join(filepath.Dir(path), ".env.example"))
		if errors.Is(err, fs.ErrNotExist) {
			env, err = map[string]string{}, nil
		}
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	for k, v := range values {
		env[k] = v
	}
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}
