package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aleksvolk/connectboard/internal/client/flow"
	"github.com/aleksvolk/connectboard/internal/settings"
)

func (a *App) getStatus() string {
	record := a.synchronizer.Record()
	s := record.OnboardingFlow()
	if record.GeneralSettings().IsVerified {
		s += " verified"
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Root(ctx context.Context) {

	fmt.Println("Welcome to connectboard CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("cb %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Println("Available commands: show, keys, set, flow, dashboard, tab, onboard, dash, exit")

		case "show":
			a.show()

		case "keys":
			a.enterKeys(ctx)

		case "set":
			if len(args) < 3 {
				fmt.Println("Usage: set <category> <key> <value>")
				continue
			}
			a.set(ctx, args[0], args[1], strings.Join(args[2:], " "))

		case "flow":
			if len(args) == 0 {
				fmt.Println("Usage: flow <hosted|embedded|api>")
				continue
			}
			a.setFlow(ctx, args[0])

		case "dashboard":
			if len(args) == 0 {
				fmt.Println("Usage: dashboard <hosted|embedded|none>")
				continue
			}
			a.setDashboard(ctx, args[0])

		case "tab":
			if len(args) == 0 {
				fmt.Println("Usage: tab <index>")
				continue
			}
			a.setTab(ctx, args[0])

		case "onboard":
			email := ""
			if len(args) > 0 {
				email = args[0]
			}
			a.onboard(ctx, email)

		case "dash":
			a.dash(ctx)

		case "exit", "quit":
			fmt.Println("Bye!")
			return

		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

func (a *App) show() {
	record := a.synchronizer.Record()
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(string(data))
}

// enterKeys collects the API key pair; the secret key is read without
// echo. Saving the pair resets the verified flag and schedules a
// background credential check.
func (a *App) enterKeys(ctx context.Context) {
	publicKey, err := GetSimpleText(a.reader, "Enter publishable key", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	secretKey, err := GetSecret("Enter secret key", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	err = a.synchronizer.UpdateGeneral(ctx, map[string]any{
		settings.KeyAuthPublicKey: publicKey,
		settings.KeyAuthSecretKey: secretKey,
	})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Keys saved; verification runs in the background.")
}

func (a *App) set(ctx context.Context, category, key, raw string) {
	var value any = raw
	if n, err := strconv.Atoi(raw); err == nil {
		value = n
	} else if b, err := strconv.ParseBool(raw); err == nil {
		value = b
	}

	if err := a.synchronizer.Update(ctx, category, map[string]any{key: value}); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Printf("%s.%s = %v\n", category, key, value)
}

func (a *App) setFlow(ctx context.Context, kind string) {
	err := a.synchronizer.UpdateOnboarding(ctx, map[string]any{settings.KeyOnboardingFlow: kind})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	// the record accessor degrades unknown values, report what actually took
	fmt.Println("Onboarding flow:", a.synchronizer.Record().OnboardingFlow())
}

func (a *App) setDashboard(ctx context.Context, kind string) {
	err := a.synchronizer.UpdateDashboard(ctx, map[string]any{settings.KeyDashboardType: kind})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Dashboard:", a.synchronizer.Record().DashboardType())
}

func (a *App) setTab(ctx context.Context, raw string) {
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		fmt.Println("Tab index must be a non-negative integer")
		return
	}
	if err := a.synchronizer.UpdateUI(ctx, map[string]any{settings.KeyActiveTabIndex: index}); err != nil {
		fmt.Println("Error:", err)
	}
}

// onboard runs the active onboarding strategy. With no email argument a
// throwaway demo address is generated.
func (a *App) onboard(ctx context.Context, email string) {
	if email == "" {
		generated, err := generateDemoEmail()
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		email = generated
		fmt.Println("Using demo email:", email)
	}

	switch strategy := a.dispatcher.Onboarding().(type) {
	case *flow.HostedOnboarding:
		if err := strategy.SubmitEmail(ctx, email); err != nil {
			fmt.Println("Error:", strategy.Message())
			return
		}
		fmt.Println("Account:", strategy.AccountID())
		fmt.Println("Open to continue onboarding:", strategy.RedirectURL())

	case *flow.EmbeddedOnboarding:
		if err := strategy.SubmitEmail(ctx, email); err != nil {
			fmt.Println("Error:", strategy.Message())
			return
		}
		fmt.Println("Account:", strategy.AccountID())
		fmt.Println("Widget session ready, client secret:", strategy.ClientSecret())

	case *flow.APIOnboarding:
		fmt.Println(strategy.Guidance())

	default:
		fmt.Println("No onboarding strategy active")
	}
}

// dash runs the active dashboard strategy against the verified account.
func (a *App) dash(ctx context.Context) {
	switch strategy := a.dispatcher.Dashboard().(type) {
	case *flow.EmbeddedDashboard:
		accountID := a.synchronizer.Record().GeneralSettings().VerifiedAccountID
		if accountID == "" {
			fmt.Println("No verified account; enter keys first.")
			return
		}
		if err := strategy.Load(ctx, accountID); err != nil {
			fmt.Println("Error:", strategy.Message())
			return
		}
		fmt.Println("Dashboard session ready, components:", strings.Join(strategy.EnabledComponents(), ", "))

	case *flow.HostedDashboard:
		fmt.Println(strategy.Guidance())

	case *flow.NoneDashboard:
		fmt.Println("Dashboard is disabled in settings.")

	default:
		fmt.Println("No dashboard strategy active")
	}
}
