// Package main writes a development CA and a server certificate signed by
// it into a directory ("certs" by default). An existing CA in that
// directory is reused so clients that already trust it keep working.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/GenomePortal/internal/certgen"
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma separated server host names and IPs")
	flag.Parse()

	if err := run(*dir, splitHosts(*hosts), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func splitHosts(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func run(dir string, hosts []string, out io.Writer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	caCertPath := filepath.Join(dir, "ca.crt")
	caKeyPath := filepath.Join(dir, "ca.key")

	caCert, caKey, err := certgen.LoadCACredentials(caCertPath, caKeyPath)
	if err != nil {
		if _, statErr := os.Stat(caCertPath); statErr == nil {
			return fmt.Errorf("existing CA unusable: %w", err)
		}
		cert, key, err := certgen.GenerateCA("Genome Portal Dev CA")
		if err != nil {
			return err
		}
		certPEM, keyPEM, err := certgen.EncodeCA(cert, key)
		if err != nil {
			return err
		}
		if err := writeCertAndKey(caCertPath, caKeyPath, certPEM, keyPEM); err != nil {
			return err
		}
		caCert, caKey = cert, key
		fmt.Fprintf(out, "Generated CA into %s\n", caCertPath)
	} else {
		fmt.Fprintf(out, "Reusing CA %s\n", caCertPath)
	}

	certPEM, keyPEM, err := certgen.GenerateServerCertificate(hosts, caCert, caKey)
	if err != nil {
		return err
	}
	if err := writeCertAndKey(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"), certPEM, keyPEM); err != nil {
		return err
	}
	fmt.Fprintf(out, "Server certificate for %s written into %s\n", strings.Join(hosts, ", "), dir)
	return nil
}

// writeCertAndKey writes a PEM certificate and its key; the key is
// readable by the owner only.
func writeCertAndKey(certPath, keyPath string, certPEM, keyPEM []byte) error {
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return err
	}
	return os.WriteFile(keyPath, keyPEM, 0o600)
}
