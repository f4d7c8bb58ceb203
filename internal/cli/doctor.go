package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/crossbario/crossbar-shell/internal/keyring"
	"github.com/crossbario/crossbar-shell/internal/profile"
	"github.com/crossbario/crossbar-shell/internal/utils"
)

// CheckResult represents the result of a diagnostic check.
type CheckResult struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"`
}

// CheckStatus represents the status of a diagnostic check.
type CheckStatus int

const (
	// CheckOK indicates the check passed.
	CheckOK CheckStatus = iota
	// CheckWarning indicates a non-critical issue.
	CheckWarning
	// CheckError indicates a critical failure.
	CheckError
	// CheckSkipped indicates the check was skipped.
	CheckSkipped
)

// String returns the status name.
func (s CheckStatus) String() string {
	switch s {
	case CheckOK:
		return "OK"
	case CheckWarning:
		return "WARN"
	case CheckError:
		return "ERROR"
	case CheckSkipped:
		return "SKIP"
	default:
		return "UNKNOWN"
	}
}

// Icon returns the status icon for display.
func (s CheckStatus) Icon() string {
	switch s {
	case CheckOK:
		return "[OK]"
	case CheckWarning:
		return "[!!]"
	case CheckError:
		return "[XX]"
	case CheckSkipped:
		return "[--]"
	default:
		return "[??]"
	}
}

// MarshalJSON implements json.Marshaler.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *CheckStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, status := range []CheckStatus{CheckOK, CheckWarning, CheckError, CheckSkipped} {
		if status.String() == name {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown check status %q", name)
}

// DoctorOutput represents the doctor command output.
type DoctorOutput struct {
	Checks      []CheckResult `json:"checks"`
	HasErrors   bool          `json:"has_errors"`
	HasWarnings bool          `json:"has_warnings"`
}

// dialTimeout bounds the router reachability check.
const dialTimeout = 5 * time.Second

// newDoctorCmd creates the doctor command.
func (cli *CLI) newDoctorCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues",
		Long: `Run diagnostic checks to identify and troubleshoot common issues.

The doctor command checks:
  - Configuration directory and file
  - Selected profile
  - Profile key
  - Keyring availability
  - Router reachability

Use --verbose for suggested fixes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			results := cli.runDiagnostics(ctx)

			output := DoctorOutput{Checks: results}
			for _, r := range results {
				if r.Status == CheckError {
					output.HasErrors = true
				}
				if r.Status == CheckWarning {
					output.HasWarnings = true
				}
			}

			writeErr := cli.NewOutputWriter().Write(output, func(w io.Writer) {
				writeDiagnostics(w, output, verbose)
			})
			if writeErr != nil {
				return writeErr
			}

			if output.HasErrors {
				return fmt.Errorf("diagnostics failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "V", false, "Show suggested fixes")

	return cmd
}

func writeDiagnostics(w io.Writer, output DoctorOutput, verbose bool) {
	fmt.Fprintln(w, "cbsh Diagnostics")
	fmt.Fprintln(w, "================")
	fmt.Fprintln(w)

	for _, r := range output.Checks {
		fmt.Fprintf(w, "%s %s", r.Status.Icon(), r.Name)
		if r.Message != "" {
			fmt.Fprintf(w, ": %s", r.Message)
		}
		fmt.Fprintln(w)

		if (r.Status == CheckError || r.Status == CheckWarning) && r.Fix != "" && verbose {
			fmt.Fprintf(w, "      -> %s\n", r.Fix)
		}
	}

	fmt.Fprintln(w)
	switch {
	case output.HasErrors:
		fmt.Fprintln(w, "Some checks failed. Run with --verbose for suggested fixes.")
	case output.HasWarnings:
		fmt.Fprintln(w, "All critical checks passed with some warnings.")
	default:
		fmt.Fprintln(w, "All checks passed!")
	}
}

func (cli *CLI) runDiagnostics(ctx context.Context) []CheckResult {
	var results []CheckResult

	results = append(results, cli.checkConfigDir())
	results = append(results, cli.checkConfigFile())

	p, result := cli.checkProfile()
	results = append(results, result)

	results = append(results, cli.checkKeyring(p))
	results = append(results, cli.checkKey(p))
	results = append(results, cli.checkRouter(ctx, p))

	return results
}

func (cli *CLI) checkConfigDir() CheckResult {
	info, err := os.Stat(cli.Paths.ConfigDir)
	if err != nil || !info.IsDir() {
		return CheckResult{
			Name:    "Configuration directory",
			Status:  CheckError,
			Message: fmt.Sprintf("%s is not accessible", cli.Paths.ConfigDir),
			Fix:     "Check the permissions of the directory or pass --config-dir",
		}
	}

	if info.Mode().Perm()&0077 != 0 {
		return CheckResult{
			Name:    "Configuration directory",
			Status:  CheckWarning,
			Message: fmt.Sprintf("%s is accessible by other users", cli.Paths.ConfigDir),
			Fix:     fmt.Sprintf("Run: chmod 700 %s", cli.Paths.ConfigDir),
		}
	}

	return CheckResult{
		Name:    "Configuration directory",
		Status:  CheckOK,
		Message: cli.Paths.ConfigDir,
	}
}

func (cli *CLI) checkConfigFile() CheckResult {
	if _, err := os.Stat(cli.Paths.ConfigFile); os.IsNotExist(err) {
		return CheckResult{
			Name:    "Configuration file",
			Status:  CheckWarning,
			Message: "not found",
			Fix:     fmt.Sprintf("Create %s with a profiles section", cli.Paths.ConfigFile),
		}
	}

	return CheckResult{
		Name:    "Configuration file",
		Status:  CheckOK,
		Message: fmt.Sprintf("found (%d profiles)", len(cli.Config.Profiles)),
	}
}

func (cli *CLI) checkProfile() (*profile.Profile, CheckResult) {
	p, err := profile.Get(cli.Config, cli.profile)
	if err != nil {
		return nil, CheckResult{
			Name:    "Profile",
			Status:  CheckError,
			Message: fmt.Sprintf("'%s' is not configured", cli.profile),
			Fix:     fmt.Sprintf("Add a '%s' entry under profiles in %s", cli.profile, cli.Paths.ConfigFile),
		}
	}

	if err := p.Validate(); err != nil {
		return nil, CheckResult{
			Name:    "Profile",
			Status:  CheckError,
			Message: err.Error(),
			Fix:     "Use a ws:// or wss:// router URL",
		}
	}

	return p, CheckResult{
		Name:    "Profile",
		Status:  CheckOK,
		Message: fmt.Sprintf("'%s' selected (%s)", p.Name, p.GetURL()),
	}
}

func (cli *CLI) checkKeyring(p *profile.Profile) CheckResult {
	if err := cli.Keyring.IsAvailable(); err != nil {
		status := CheckWarning
		if p != nil && p.Keyring {
			status = CheckError
		}
		return CheckResult{
			Name:    "Keyring",
			Status:  status,
			Message: fmt.Sprintf("unavailable: %v", err),
			Fix:     "Install and configure a keyring service (gnome-keyring, kwallet, or macOS Keychain)",
		}
	}

	var keyringType string
	switch cli.Keyring.(type) {
	case *keyring.FileStore:
		keyringType = "file-based (test mode)"
	default:
		keyringType = "OS keyring"
	}

	return CheckResult{
		Name:    "Keyring",
		Status:  CheckOK,
		Message: keyringType,
	}
}

func (cli *CLI) checkKey(p *profile.Profile) CheckResult {
	if p == nil {
		return CheckResult{
			Name:    "Key",
			Status:  CheckSkipped,
			Message: "no valid profile",
		}
	}

	kp, err := p.LoadKeypair(cli.Paths, cli.Keyring)
	if err != nil {
		return CheckResult{
			Name:    "Key",
			Status:  CheckError,
			Message: err.Error(),
			Fix:     "Run 'cbsh key generate --user-id <email>' to create a key",
		}
	}

	if kp.UserID == "" {
		return CheckResult{
			Name:    "Key",
			Status:  CheckWarning,
			Message: fmt.Sprintf("no user id (public key %s)", utils.Fingerprint(kp.PublicKeyHex())),
			Fix:     "Regenerate the key with 'cbsh key generate --user-id <email> --force'",
		}
	}

	return CheckResult{
		Name:    "Key",
		Status:  CheckOK,
		Message: fmt.Sprintf("%s (public key %s)", kp.UserID, utils.Fingerprint(kp.PublicKeyHex())),
	}
}

func (cli *CLI) checkRouter(ctx context.Context, p *profile.Profile) CheckResult {
	if p == nil {
		return CheckResult{
			Name:    "Router",
			Status:  CheckSkipped,
			Message: "no valid profile",
		}
	}

	u, err := url.Parse(p.GetURL())
	if err != nil {
		return CheckResult{
			Name:    "Router",
			Status:  CheckError,
			Message: fmt.Sprintf("invalid URL: %v", err),
		}
	}

	host := u.Host
	if u.Port() == "" {
		port := "443"
		if u.Scheme == "ws" {
			port = "80"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", host)
	if err != nil {
		return CheckResult{
			Name:    "Router",
			Status:  CheckError,
			Message: fmt.Sprintf("connection failed: %v", err),
			Fix:     "Check that the router is running and the profile URL is correct",
		}
	}
	_ = conn.Close()

	return CheckResult{
		Name:    "Router",
		Status:  CheckOK,
		Message: fmt.Sprintf("%s is reachable", host),
	}
}
