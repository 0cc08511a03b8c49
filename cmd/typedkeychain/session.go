package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/benaskins/typedkeychain/internal/audit"
	"github.com/benaskins/typedkeychain/internal/config"
	"github.com/benaskins/typedkeychain/keychain"
	"github.com/benaskins/typedkeychain/keychain/backend"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// defaultService is the service attribute used when neither flags nor the
// config file name an identity.
const defaultService = "com.typedkeychain"

// passphraseEnv supplies the file backend passphrase without a prompt.
const passphraseEnv = "TYPEDKEYCHAIN_PASSPHRASE"

var flags struct {
	configPath  string
	backend     string
	service     string
	server      string
	accessGroup string
	fileDir     string
	noAudit     bool
	verbose     bool
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.DefaultPath(), "Path to config file")
	pf.StringVar(&flags.backend, "backend", "", "Backend: system, keychain, keyring, file or memory")
	pf.StringVar(&flags.service, "service", "", "Generic-password service name")
	pf.StringVar(&flags.server, "server", "", "Internet-password server URL (e.g. https://example.com)")
	pf.StringVar(&flags.accessGroup, "access-group", "", "Keychain access group")
	pf.StringVar(&flags.fileDir, "file-dir", "", "Directory for the file backend")
	pf.BoolVar(&flags.noAudit, "no-audit", false, "Do not write the audit log")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flags.verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}
}

// session is an opened Keychain plus what must be closed with it.
type session struct {
	kc    *keychain.Keychain
	audit *audit.Logger
	cfg   *config.Config
	home  string
}

func (s *session) Close() {
	if s.audit != nil {
		s.audit.Close()
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", flags.configPath, err)
	}
	if flags.backend != "" {
		cfg.Backend = flags.backend
	}
	if flags.service != "" || flags.server != "" {
		cfg.Service, cfg.Server = flags.service, flags.server
	}
	if flags.accessGroup != "" {
		cfg.AccessGroup = flags.accessGroup
	}
	if flags.fileDir != "" {
		cfg.FileDir = flags.fileDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	home, err := config.Home()
	if err != nil {
		return nil, err
	}

	b, err := openBackend(cfg, home)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, home: home}
	if !flags.noAudit {
		s.audit, err = audit.NewLogger(auditPath(cfg, home))
		if err != nil {
			return nil, err
		}
		b = backend.NewAudited(b, s.audit, "cli")
	}

	opts, err := keychainOptions(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	if cfg.Server != "" {
		s.kc, err = keychain.NewInternet(b, cfg.Server, opts...)
	} else {
		service := cfg.Service
		if service == "" {
			service = defaultService
		}
		s.kc, err = keychain.NewGeneric(b, service, opts...)
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func keychainOptions(cfg *config.Config) ([]keychain.Option, error) {
	var opts []keychain.Option
	if cfg.AccessGroup != "" {
		opts = append(opts, keychain.WithAccessGroup(cfg.AccessGroup))
	}
	accessibility, err := keychain.ParseAccessibility(cfg.Accessibility)
	if err != nil {
		return nil, err
	}
	if accessibility != "" {
		opts = append(opts, keychain.WithAccessibility(accessibility))
	}
	if cfg.Synchronizable != nil {
		opts = append(opts, keychain.WithSynchronizable(*cfg.Synchronizable))
	}
	if cfg.Label != "" {
		opts = append(opts, keychain.WithLabel(cfg.Label))
	}
	return opts, nil
}

func openBackend(cfg *config.Config, home string) (backend.Backend, error) {
	switch cfg.Backend {
	case "", config.BackendSystem:
		return backend.NewSystem(), nil
	case config.BackendNative:
		native, err := backend.NewNative()
		if err != nil {
			return nil, fmt.Errorf("macOS Keychain: %w", err)
		}
		return native, nil
	case config.BackendKeyring:
		return backend.NewOSKeyring(), nil
	case config.BackendFile:
		dir := fileDir(cfg, home)
		passphrase, err := filePassphrase()
		if err != nil {
			return nil, err
		}
		return backend.OpenFileRing("typedkeychain", dir, passphrase)
	case config.BackendMemory:
		slog.Warn("memory backend selected; items are discarded on exit")
		return backend.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func auditPath(cfg *config.Config, home string) string {
	if cfg.AuditLog != "" {
		return cfg.AuditLog
	}
	return filepath.Join(home, "audit.log")
}

// fileDir is where the file backend keeps its encrypted items.
func fileDir(cfg *config.Config, home string) string {
	if cfg.FileDir != "" {
		return cfg.FileDir
	}
	return filepath.Join(home, "items")
}

func filePassphrase() (string, error) {
	if p := os.Getenv(passphraseEnv); p != "" {
		return p, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("file backend needs %s when stdin is not a terminal", passphraseEnv)
	}
	fmt.Fprint(os.Stderr, "File backend passphrase: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}
