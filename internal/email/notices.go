package email

import (
	"bytes"
	"text/template"
)

// Aviso de bienvenida al creador de un blog nuevo. Best-effort: la creación
// del blog nunca falla por un SMTP caído.

type WelcomeBlogVars struct {
	BlogTitle string
	BlogURL   string
	UserLogin string
}

var welcomeBlogTxt = template.Must(template.New("welcome_blog_txt").Parse(
	`Hola {{.UserLogin}},

tu blog "{{.BlogTitle}}" ya está creado:

  {{.BlogURL}}

Podés entrar con tu cuenta institucional.
`))

// SendWelcomeBlog envía el aviso de blog creado.
func SendWelcomeBlog(s Sender, to string, v WelcomeBlogVars) error {
	var txt bytes.Buffer
	if err := welcomeBlogTxt.Execute(&txt, v); err != nil {
		return err
	}
	return s.Send(to, "Tu blog "+v.BlogTitle+" está listo", "", txt.String())
}
