// multiblogctl habla con el endpoint XML-RPC usando la variante svc.*
// (cuenta de servicio actuando por un usuario).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/multiblog/internal/xmlrpc"
)

type cli struct {
	URL         string
	ServiceUser string
	ServicePass string
	ActAs       string
}

func (c *cli) call(method string, params ...any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := &xmlrpc.Client{URL: c.URL, HTTP: &http.Client{Timeout: 30 * time.Second}}
	args := append([]any{c.ServiceUser, c.ServicePass, c.ActAs}, params...)
	v, err := client.Call(ctx, "svc."+method, args...)
	if err != nil {
		return err
	}
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
	return nil
}

// blogRef interpreta un argumento como id numérico o nombre.
func blogRef(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

func main() {
	c := &cli{}

	root := &cobra.Command{
		Use:           "multiblogctl",
		Short:         "Cliente XML-RPC de la red de blogs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.URL, "url", envOr("MULTIBLOG_URL", "http://localhost:8080/xmlrpc"), "endpoint XML-RPC")
	root.PersistentFlags().StringVar(&c.ServiceUser, "service-user", os.Getenv("MULTIBLOG_SERVICE_USER"), "cuenta de servicio")
	root.PersistentFlags().StringVar(&c.ServicePass, "service-pass", os.Getenv("MULTIBLOG_SERVICE_PASS"), "secreto de la cuenta de servicio")
	root.PersistentFlags().StringVar(&c.ActAs, "act-as", os.Getenv("MULTIBLOG_ACT_AS"), "usuario por el que actuar")

	root.AddCommand(
		&cobra.Command{
			Use:   "blog-exists <blogname>",
			Short: "Consulta si existe un blog",
			Args:  cobra.ExactArgs(1),
			RunE:  func(_ *cobra.Command, args []string) error { return c.call("blogExists", args[0]) },
		},
		&cobra.Command{
			Use:   "my-blogs",
			Short: "Lista los blogs del usuario act-as",
			Args:  cobra.NoArgs,
			RunE:  func(_ *cobra.Command, _ []string) error { return c.call("getUsersBlogs") },
		},
		&cobra.Command{
			Use:   "search <prefix>",
			Short: "Busca blogs por prefijo de path",
			Args:  cobra.ExactArgs(1),
			RunE:  func(_ *cobra.Command, args []string) error { return c.call("searchBlogs", args[0]) },
		},
		&cobra.Command{
			Use:   "get-blog <blog>",
			Short: "Info de un blog por id o nombre",
			Args:  cobra.ExactArgs(1),
			RunE:  func(_ *cobra.Command, args []string) error { return c.call("getBlog", blogRef(args[0])) },
		},
		&cobra.Command{
			Use:   "create-blog <blogname> <title> <public>",
			Short: "Crea un blog (public: 1, 0, -1 o -2)",
			Args:  cobra.ExactArgs(3),
			RunE: func(_ *cobra.Command, args []string) error {
				public, err := strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("public debe ser entero: %q", args[2])
				}
				return c.call("createBlog", args[0], args[1], public)
			},
		},
		&cobra.Command{
			Use:   "add-user <blog> <login> <role>",
			Short: "Agrega un usuario al blog con un rol",
			Args:  cobra.ExactArgs(3),
			RunE: func(_ *cobra.Command, args []string) error {
				return c.call("addUser", blogRef(args[0]), args[1], args[2])
			},
		},
		&cobra.Command{
			Use:   "remove-user <blog> <login>",
			Short: "Quita todos los roles del usuario en el blog",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				return c.call("removeUser", blogRef(args[0]), args[1])
			},
		},
		&cobra.Command{
			Use:   "user-roles <blog> <login>",
			Short: "Roles del usuario en el blog",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				return c.call("getUserRoles", blogRef(args[0]), args[1])
			},
		},
	)

	sync := &cobra.Command{Use: "sync", Short: "Reglas de grupos sincronizados"}
	sync.AddCommand(
		&cobra.Command{
			Use:   "add <blog> <group_dn> <role>",
			Short: "Declara grupo→rol y sincroniza ya",
			Args:  cobra.ExactArgs(3),
			RunE: func(_ *cobra.Command, args []string) error {
				return c.call("addSyncedGroup", blogRef(args[0]), args[1], args[2])
			},
		},
		&cobra.Command{
			Use:   "list <blog>",
			Short: "Lista las reglas del blog",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return c.call("getSyncedGroups", blogRef(args[0]))
			},
		},
		&cobra.Command{
			Use:   "remove <blog> <group_dn>",
			Short: "Da de baja la regla y quita las membresías",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				return c.call("removeSyncedGroup", blogRef(args[0]), args[1])
			},
		},
	)
	root.AddCommand(sync)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
