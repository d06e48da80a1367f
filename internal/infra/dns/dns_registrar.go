package dns

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mkrupp/isupipe-usersvc/internal/infra/logging"
)

// DNSConfig holds configuration for subdomain provisioning.
type DNSConfig struct {
	// Enabled turns record creation on; when false registrations skip DNS
	Enabled bool `env:"ENABLED" envDefault:"false"`

	// Zone is the parent zone user subdomains are created in
	Zone string `env:"ZONE" envDefault:"u.isucon.dev"`

	// SubdomainAddress is the A record target of every user subdomain
	SubdomainAddress string `env:"SUBDOMAIN_ADDRESS" envDefault:"127.0.0.1"`

	// Command is the pdnsutil binary to run
	Command string `env:"COMMAND" envDefault:"pdnsutil"`
}

// Registrar creates DNS records for users.
type Registrar interface {
	AddRecord(ctx context.Context, name string) error
}

// NewRegistrar returns a PDNSUtilRegistrar, or a NopRegistrar if DNS is disabled.
//
//nolint:ireturn
func NewRegistrar(cfg DNSConfig) Registrar {
	if !cfg.Enabled {
		return NopRegistrar{}
	}

	return NewPDNSUtilRegistrar(cfg)
}

// PDNSUtilRegistrar adds A records to a PowerDNS zone via the pdnsutil CLI.
type PDNSUtilRegistrar struct {
	cfg DNSConfig
	log logging.Logger
}

var _ Registrar = (*PDNSUtilRegistrar)(nil)

// NewPDNSUtilRegistrar creates a PDNSUtilRegistrar.
func NewPDNSUtilRegistrar(cfg DNSConfig) *PDNSUtilRegistrar {
	return &PDNSUtilRegistrar{
		cfg: cfg,
		log: logging.GetLogger("infra.dns.dns_registrar").With(
			logging.Group("dns", "zone", cfg.Zone, "address", cfg.SubdomainAddress),
		),
	}
}

// AddRecord runs `pdnsutil add-record <zone> <name> A 0 <address>`.
func (r *PDNSUtilRegistrar) AddRecord(ctx context.Context, name string) (err error) {
	log := r.log.With(logging.Group("record", "name", name))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "add record failed", "error", err)
		} else {
			log.DebugContext(ctx, "record added")
		}
	}()

	//nolint:gosec
	cmd := exec.CommandContext(ctx, r.cfg.Command, "add-record", r.cfg.Zone, name, "A", "0", r.cfg.SubdomainAddress)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s add-record: %w: %s", r.cfg.Command, err, strings.TrimSpace(string(out)))
	}

	return nil
}

// NopRegistrar accepts every record without doing anything.
type NopRegistrar struct{}

var _ Registrar = NopRegistrar{}

func (NopRegistrar) AddRecord(context.Context, string) error {
	return nil
}
