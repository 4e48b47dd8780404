// seed da de alta cuentas de servicio y sus capacidades de red directamente
// en la base. Pensado para bootstrap de entornos nuevos.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dropDatabas3/multiblog/internal/config"
	"github.com/dropDatabas3/multiblog/internal/security/password"
)

func main() {
	var (
		configPath = flag.String("config", "configs/config.example.yaml", "ruta del YAML de configuración")
		login      = flag.String("login", "", "login de la cuenta de servicio")
		secret     = flag.String("secret", "", "secreto en claro (se guarda el hash)")
		caps       = flag.String("caps", "manage_sites,manage_network_users", "capacidades de red, separadas por coma")
	)
	flag.Parse()

	if *login == "" || *secret == "" {
		log.Fatal("uso: seed -login <cuenta> -secret <secreto> [-caps a,b]")
	}

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	phc, err := password.Hash(password.Default, *secret)
	if err != nil {
		log.Fatalf("hash: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `
		INSERT INTO service_accounts (login, secret_hash)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE SET secret_hash = EXCLUDED.secret_hash, disabled = FALSE`,
		*login, phc)
	if err != nil {
		log.Fatalf("upsert service account: %v", err)
	}

	for _, c := range strings.Split(*caps, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO service_account_caps (login, capability)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, *login, c)
		if err != nil {
			log.Fatalf("grant capability %s: %v", c, err)
		}
	}

	fmt.Printf("service account %q ready (caps: %s)\n", *login, *caps)
}
