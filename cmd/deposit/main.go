package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/studentpay/backoffice/internal/core/client"
	"github.com/studentpay/backoffice/internal/core/logger"
	"github.com/studentpay/backoffice/internal/core/store/memory"
	"github.com/studentpay/backoffice/internal/core/usecase"
	"github.com/studentpay/backoffice/pkg/config"
)

// Консольный кассовый терминал: вход оператора, поиск пользователя,
// проверка кошелька, внесение наличных.
func main() {
	log, cleanup := logger.NewLogger()
	defer cleanup()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	fallback := memory.New(log, cfg.MockLatency)
	api, err := client.New(client.Config{
		BaseURL:         cfg.APIBaseURL,
		Mode:            cfg.APIMode,
		WithCredentials: cfg.APIWithCredentials,
		Timeout:         cfg.RequestTimeout,
		OnFallback: func(ev client.FallbackEvent) {
			fmt.Printf("! Mode démo: %s servi par les données locales\n", ev.Operation)
		},
	}, fallback, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "client:", err)
		os.Exit(1)
	}

	if api.Mode() == client.MockOnly {
		fmt.Println("! Mode démo: aucune requête réseau, données locales uniquement")
	}

	in := bufio.NewReader(os.Stdin)
	ctx := context.Background()

	fmt.Println("=== Connexion opérateur ===")
	fmt.Print("Email: ")
	email := readLine(in)
	fmt.Print("Mot de passe: ")
	pass := readLine(in)

	operator, err := api.Login(ctx, email, pass)
	if err != nil {
		fmt.Println(usecase.LoginGuidance(err))
		os.Exit(1)
	}
	fmt.Printf("Bonjour %s.\n", operator.Name)

	wf := usecase.NewDepositWorkflow(api, log)

	for {
		fmt.Print("\nUtilisateur (email ou nom, vide pour quitter): ")
		term := readLine(in)
		if term == "" {
			return
		}

		if err := wf.Search(ctx, term); err != nil {
			fmt.Println("Erreur:", err)
			continue
		}

		user := wf.User()
		fmt.Printf("Trouvé: %s <%s>\n", user.Name, user.Email)

		if !wf.CanSubmit() {
			fmt.Println("Cet utilisateur n'a pas de wallet.")
			fmt.Print("Wallet ID manuel (vide pour annuler): ")
			raw := readLine(in)
			if raw == "" {
				wf.Cancel()
				continue
			}
			if err := wf.ReloadWallet(ctx, raw); err != nil || !wf.CanSubmit() {
				fmt.Println("Wallet introuvable.")
				wf.Cancel()
				continue
			}
		}

		wallet := wf.Wallet()
		fmt.Printf("Wallet %s, solde actuel: %s %s\n", wallet.ID, wallet.Balance.String(), wallet.Currency)

		fmt.Print("Montant à créditer (min 100): ")
		raw := readLine(in)
		amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
		if err != nil {
			fmt.Println("Montant invalide.")
			wf.Cancel()
			continue
		}

		if _, err := wf.Submit(ctx, amount); err != nil {
			fmt.Println("Échec du dépôt:", err)
			continue
		}
		fmt.Println(wf.SuccessNotice())
	}
}

func readLine(in *bufio.Reader) string {
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}
