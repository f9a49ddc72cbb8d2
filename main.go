package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"

	"github.com/km-arc/go-inject/framework/app"
	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/providers"
	"github.com/km-arc/go-inject/framework/types"
)

// ── Demo object graph ────────────────────────────────────────────────────────

type Mailer interface {
	Send(to, body string) error
}

type smtpMailer struct{ host string }

func (m *smtpMailer) Send(to, body string) error {
	fmt.Printf("[smtp %s] → %s: %s\n", m.host, to, body)
	return nil
}

type logMailer struct{ log logr.Logger }

func (m *logMailer) Send(to, body string) error {
	m.log.Info("mail", "to", to, "body", body)
	return nil
}

type Greeter struct {
	mailer Mailer
	from   string
}

func (g *Greeter) Greet(to string) error {
	return g.mailer.Send(to, "Hello from "+g.from)
}

// mailModule publishes two qualified mailers, a primary chosen by property,
// and a greeter that depends on whichever mailer wins.
type mailModule struct{}

func (mailModule) Providers() []container.Provider {
	mailerType := types.TypeOf[Mailer]()
	return []container.Provider{
		providers.Singleton(mailerType, func(c *container.Container) any {
			host, _ := c.Property("MAIL_HOST")
			return &smtpMailer{host: host}
		}, providers.Named("smtp"), providers.When(container.OnProperty("MAIL_HOST", ""))),

		providers.Singleton(mailerType, func(c *container.Container) any {
			return &logMailer{log: container.MustResolve[logr.Logger](c).WithName("mail")}
		}, providers.Named("log")),

		// Primary: SMTP when configured, otherwise the log mailer.
		providers.Factory(mailerType, func(c *container.Container) any {
			if m, ok, _ := c.GetQualified(mailerType, types.Named("smtp")); ok {
				return m
			}
			m, _, _ := c.GetQualified(mailerType, types.Named("log"))
			return m
		}, providers.Primary(), providers.Called("mailer")),

		providers.SingletonOf(func(c *container.Container) *Greeter {
			return &Greeter{
				mailer: container.MustResolve[Mailer](c),
				from:   container.MustResolve[*config.Config](c).App.Name,
			}
		}),
	}
}

func (mailModule) Boot(c *container.Container) error {
	g, err := container.Resolve[*Greeter](c)
	if err != nil {
		return err
	}
	return g.Greet("ops@example.com")
}

func main() {
	application, err := app.New() // loads .env automatically
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := application.Register(mailModule{}); err != nil {
		application.Log.Error(err, "register")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		application.Log.Error(err, "run")
		os.Exit(1)
	}
}
