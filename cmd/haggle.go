package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"camgrocer/pkg/negotiation"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const thinkDelay = 1200 * time.Millisecond

var (
	sellerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2E8B57"))
	buyerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D2691E"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
	dealStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD700"))
)

type haggleOptions struct {
	price   int
	product string
	unit    string
	lang    string
	think   time.Duration
}

func newHaggleCmd(a *app) *cobra.Command {
	var (
		opts  haggleOptions
		think bool
	)
	cmd := &cobra.Command{
		Use:   "haggle",
		Short: "Bargain with the negotiation engine in the terminal",
		Long: `Starts an offline price dialogue for a product listed at --price FCFA.

Type an offer (for example "I go pay 850") and the seller answers.
  /lang <en|fr|pidgin>  switch language
  /accept               take the last accepted offer and finish
  /quit                 leave without a deal`,
		Example: `  camgrocer haggle --price 1000 --product Tomatoes --unit kg --lang fr`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.price <= 0 {
				return fmt.Errorf("--price must be a positive whole FCFA amount")
			}
			if think {
				opts.think = thinkDelay
			}
			return haggle(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().IntVar(&opts.price, "price", 0, "Listed price in FCFA")
	cmd.Flags().StringVar(&opts.product, "product", "", "Product name")
	cmd.Flags().StringVar(&opts.unit, "unit", "", "Unit the price is for")
	cmd.Flags().StringVar(&opts.lang, "lang", "en", "Language: en, fr or pidgin")
	cmd.Flags().BoolVar(&think, "think", false, "Pause before each answer as if the seller were thinking")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

// haggle runs the dialogue loop until /accept succeeds, /quit or EOF.
func haggle(in io.Reader, out io.Writer, opts haggleOptions) error {
	s := negotiation.Start(opts.price, opts.product, opts.unit, negotiation.ParseLanguage(opts.lang))
	seller := func(text string) {
		fmt.Fprintf(out, "%s %s\n", sellerStyle.Render("seller>"), text)
	}

	seller(s.Transcript[0].Text)
	fmt.Fprintln(out, hintStyle.Render("(/lang <code>, /accept, /quit)"))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, buyerStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit":
			fmt.Fprintln(out, hintStyle.Render("no deal"))
			return nil
		case line == "/accept":
			deal, err := s.Commit()
			if errors.Is(err, negotiation.ErrNotAccepted) {
				fmt.Fprintln(out, hintStyle.Render("no accepted offer yet"))
				continue
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, dealStyle.Render(fmt.Sprintf("deal: %d %s (%d%% off)", deal.FinalPrice, negotiation.DefaultCatalog().Currency(), deal.DiscountPercent)))
			return nil
		case strings.HasPrefix(line, "/lang"):
			s.SetLanguage(negotiation.ParseLanguage(strings.TrimSpace(strings.TrimPrefix(line, "/lang"))))
			fmt.Fprintln(out, hintStyle.Render("language: "+string(s.Language)))
			continue
		}

		if opts.think > 0 {
			time.Sleep(opts.think)
		}
		seller(s.SubmitOffer(line).Text)
	}
}
