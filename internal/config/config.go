package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	// Network describe la red multi-blog: dominio raíz y si los blogs viven
	// en subdominios (blog.example.edu) o en paths (example.edu/blog/).
	Network struct {
		Domain           string `yaml:"domain"`
		PathBase         string `yaml:"path_base"`
		SubdomainInstall bool   `yaml:"subdomain_install"`
	} `yaml:"network"`

	Storage struct {
		Driver   string `yaml:"driver"` // postgres | memory
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	// CAS es el proveedor de identidad para la variante directa.
	CAS struct {
		ServerURL  string `yaml:"server_url"`  // p.ej. https://cas.example.edu/cas
		ServiceURL string `yaml:"service_url"` // URL registrada de este servicio
		Timeout    string `yaml:"timeout"`
	} `yaml:"cas"`

	Directory struct {
		Kind string `yaml:"kind"` // ldap | static
		LDAP struct {
			URL            string `yaml:"url"` // ldaps://...
			BindDN         string `yaml:"bind_dn"`
			BindPassword   string `yaml:"bind_password"`
			UserBaseDN     string `yaml:"user_base_dn"`
			UserFilter     string `yaml:"user_filter"` // %s = login
			LoginAttr      string `yaml:"login_attr"`
			EmailAttr      string `yaml:"email_attr"`
			DisplayAttr    string `yaml:"display_attr"`
			MemberAttr     string `yaml:"member_attr"`
			RequestTimeout string `yaml:"request_timeout"`
		} `yaml:"ldap"`
		Static struct {
			Path string `yaml:"path"` // YAML con usuarios y grupos (dev/tests)
		} `yaml:"static"`
	} `yaml:"directory"`

	Session struct {
		CookieName string `yaml:"cookie_name"`
		Secret     string `yaml:"secret"` // HMAC del token de sesión
		TTL        string `yaml:"ttl"`
		Domain     string `yaml:"domain"`
		SameSite   string `yaml:"samesite"`
		Secure     bool   `yaml:"secure"`
	} `yaml:"session"`

	// Signup controla la creación de blogs vía API: all | none | blog.
	Signup struct {
		Policy string `yaml:"policy"`
	} `yaml:"signup"`

	// Sync configura el barrido programado de grupos sincronizados.
	// Schedule vacío = sin barrido (solo reconciliación al crear la regla).
	Sync struct {
		Schedule string `yaml:"schedule"` // expresión cron, p.ej. "0 4 * * *"
	} `yaml:"sync"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		MaxFailures int    `yaml:"max_failures"` // fallos de auth por ventana
		Window      string `yaml:"window"`
	} `yaml:"rate"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"` // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	// Logging replica los dos interruptores del panel original:
	// registrar cada llamada y cada fault del endpoint XML-RPC.
	Logging struct {
		Calls  bool `yaml:"calls"`
		Faults bool `yaml:"faults"`
	} `yaml:"logging"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Network.PathBase == "" {
		c.Network.PathBase = "/"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.CAS.Timeout == "" {
		c.CAS.Timeout = "10s"
	}
	if c.Directory.Kind == "" {
		c.Directory.Kind = "static"
	}
	if c.Directory.LDAP.LoginAttr == "" {
		c.Directory.LDAP.LoginAttr = "uid"
	}
	if c.Directory.LDAP.EmailAttr == "" {
		c.Directory.LDAP.EmailAttr = "mail"
	}
	if c.Directory.LDAP.DisplayAttr == "" {
		c.Directory.LDAP.DisplayAttr = "displayName"
	}
	if c.Directory.LDAP.MemberAttr == "" {
		c.Directory.LDAP.MemberAttr = "member"
	}
	if c.Directory.LDAP.UserFilter == "" {
		c.Directory.LDAP.UserFilter = "(uid=%s)"
	}
	if c.Directory.LDAP.RequestTimeout == "" {
		c.Directory.LDAP.RequestTimeout = "10s"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "mbsess"
	}
	if c.Session.SameSite == "" {
		c.Session.SameSite = "Lax"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "12h"
	}
	if c.Signup.Policy == "" {
		c.Signup.Policy = "all"
	}
	if c.Rate.MaxFailures == 0 {
		c.Rate.MaxFailures = 10
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}

	// validate string durations
	for _, d := range []string{
		c.Cache.Memory.DefaultTTL,
		c.CAS.Timeout,
		c.Directory.LDAP.RequestTimeout,
		c.Session.TTL,
		c.Rate.Window,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return nil, err
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return nil, err
		}
	}

	// Overrides por env + validación final
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate hace chequeos que no queremos descubrir en mitad de un request.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("storage.dsn requerido con driver postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver desconocido: %q", c.Storage.Driver)
	}
	switch p := c.Signup.Policy; p {
	case "all", "none", "blog":
	default:
		// La política de signup la evalúa authz (valores no reconocidos
		// deniegan), pero un typo en el YAML merece fallar temprano.
		return fmt.Errorf("signup.policy desconocida: %q", p)
	}
	if strings.EqualFold(c.App.Env, "prod") && strings.TrimSpace(c.Session.Secret) == "" {
		return fmt.Errorf("session.secret requerido en prod")
	}
	return nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("NETWORK_DOMAIN"); ok {
		c.Network.Domain = v
	}
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("CAS_SERVER_URL"); ok {
		c.CAS.ServerURL = v
	}
	if v, ok := getEnvStr("CAS_SERVICE_URL"); ok {
		c.CAS.ServiceURL = v
	}
	if v, ok := getEnvStr("DIRECTORY_KIND"); ok {
		c.Directory.Kind = v
	}
	if v, ok := getEnvStr("LDAP_URL"); ok {
		c.Directory.LDAP.URL = v
	}
	if v, ok := getEnvStr("LDAP_BIND_DN"); ok {
		c.Directory.LDAP.BindDN = v
	}
	if v, ok := getEnvStr("LDAP_BIND_PASSWORD"); ok {
		c.Directory.LDAP.BindPassword = v
	}
	if v, ok := getEnvStr("SESSION_SECRET"); ok {
		c.Session.Secret = v
	}
	if v, ok := getEnvStr("SIGNUP_POLICY"); ok {
		c.Signup.Policy = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SYNC_SCHEDULE"); ok {
		c.Sync.Schedule = v
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvBool("LOGGING_CALLS"); ok {
		c.Logging.Calls = v
	}
	if v, ok := getEnvBool("LOGGING_FAULTS"); ok {
		c.Logging.Faults = v
	}
}

// Dur parsea una duración ya validada en Load.
func Dur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
