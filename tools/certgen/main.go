// Package main provisions ContactKeeper certificates: a CA, a server
// certificate and one client certificate per login, written under -dir.
//
// Usage:
//
//	certgen [-dir certs] [-host localhost,127.0.0.1] alice bob
//
// An existing ca.crt/ca.key in -dir is reused so new users can be added later.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/ContactKeeper/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("host", "localhost,127.0.0.1", "comma-separated server host names")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ca, created, err := loadOrCreateCA(*dir)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "created CA in %s\n", *dir)

		certPEM, keyPEM, err := ca.IssueServer(splitHosts(*hosts)...)
		if err != nil {
			return err
		}
		if err := certgen.WritePair(*dir, "server", certPEM, keyPEM); err != nil {
			return err
		}
		fmt.Fprintf(out, "issued server certificate for %s\n", *hosts)
	}

	for _, login := range fs.Args() {
		if login == "ca" || login == "server" {
			return fmt.Errorf("login %q clashes with a reserved file name", login)
		}
		certPEM, keyPEM, err := ca.IssueClient(login)
		if err != nil {
			return fmt.Errorf("issue %q: %w", login, err)
		}
		if err := certgen.WritePair(*dir, login, certPEM, keyPEM); err != nil {
			return err
		}
		fmt.Fprintf(out, "issued client certificate for %s\n", login)
	}
	return nil
}

func loadOrCreateCA(dir string) (*certgen.Authority, bool, error) {
	certPath, keyPath := filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")
	ca, err := certgen.LoadAuthority(certPath, keyPath)
	if err == nil {
		return ca, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}

	ca, err = certgen.NewAuthority("ContactKeeper CA")
	if err != nil {
		return nil, false, err
	}
	certPEM, keyPEM, err := ca.PEM()
	if err != nil {
		return nil, false, err
	}
	if err := certgen.WritePair(dir, "ca", certPEM, keyPEM); err != nil {
		return nil, false, err
	}
	return ca, true, nil
}

func splitHosts(s string) []string {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
