package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/orga/internal/event"
	"github.com/javiermolinar/orga/internal/server"
)

func (a *App) clientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			repo, err := a.backend()
			if err != nil {
				return err
			}
			ctx, cancel := cliContext()
			defer cancel()

			clients, err := repo.ListClients(ctx)
			if err != nil {
				return fmt.Errorf("listing clients: %w", err)
			}
			if len(clients) == 0 {
				fmt.Fprintln(a.out, formatMuted("Aucun client"))
				return nil
			}
			for _, c := range clients {
				details := make([]string, 0, 3)
				for _, s := range []string{c.Address, c.Phone, c.Email} {
					if s != "" {
						details = append(details, s)
					}
				}
				fmt.Fprintf(a.out, "%s  %s  %s\n", formatMuted(shortID(c.ID)), formatHeader(c.Name), formatMuted(strings.Join(details, " · ")))
			}
			return nil
		},
	}
	cmd.AddCommand(a.clientAddCmd())
	return cmd
}

func (a *App) clientAddCmd() *cobra.Command {
	var c event.Client

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a client (local mode)",
		Long: `Create a client in the local database.

Example:
  orga clients add "Mme Durand" --address="12 rue des Lilas" --phone=0612345678`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			repo, err := a.backend()
			if err != nil {
				return err
			}
			creator, ok := repo.(server.ClientCreator)
			if !ok {
				return errors.New("clients can only be created in local mode")
			}
			ctx, cancel := cliContext()
			defer cancel()

			c.Name = args[0]
			if err := creator.CreateClient(ctx, &c); err != nil {
				return fmt.Errorf("creating client: %w", err)
			}
			fmt.Fprintf(a.out, "Client créé %s  %s\n", formatMuted(shortID(c.ID)), c.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&c.ID, "id", "", "Client ID, generated when empty")
	cmd.Flags().StringVar(&c.Address, "address", "", "Address")
	cmd.Flags().StringVar(&c.Phone, "phone", "", "Phone")
	cmd.Flags().StringVar(&c.Email, "email", "", "Email")
	return cmd
}
