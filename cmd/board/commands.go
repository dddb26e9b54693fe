package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"pulse-token-board/internal/app"
	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/format"
	"pulse-token-board/internal/listing"
	"pulse-token-board/internal/query"
	"pulse-token-board/internal/token"
	"pulse-token-board/internal/wallet"
)

var errUsage = errors.New("invalid usage")

type cli struct {
	app *app.App
	out io.Writer
	now func() time.Time
}

func newCLI(a *app.App, out io.Writer) *cli {
	return &cli{app: a, out: out, now: time.Now}
}

func (c *cli) run(ctx context.Context, cmd string, args []string, in io.Reader) error {
	switch cmd {
	case "list":
		return c.list(ctx, args)
	case "token":
		if len(args) != 1 {
			return fmt.Errorf("%w: token <address>", errUsage)
		}
		return c.token(ctx, args[0])
	case "search":
		if len(args) == 0 {
			return fmt.Errorf("%w: search <query>", errUsage)
		}
		return c.search(ctx, strings.Join(args, " "))
	case "wallet":
		if len(args) != 1 {
			return fmt.Errorf("%w: wallet <address>", errUsage)
		}
		return c.wallet(ctx, args[0])
	case "browse":
		return c.browse(ctx, in)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(c.out)
	page := fs.Int("page", 1, "Page number")
	size := fs.Int("size", listing.DefaultPageSize, "Page size")
	sortKey := fs.String("sort", "", "Sort key, dotted paths allowed (e.g. liquidity, txns24h.buys)")
	dir := fs.String("dir", "desc", "Sort direction (asc, desc)")
	scope := fs.String("scope", "page", "Sort scope (page, all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p := c.app.Listing.Page(ctx, listing.PageRequest{
		Page:      *page,
		PageSize:  *size,
		SortKey:   *sortKey,
		Direction: query.ParseDirection(*dir),
		Scope:     listing.ParseScope(*scope),
	})
	c.printPage(p)
	return nil
}

func (c *cli) token(ctx context.Context, address string) error {
	rec, err := c.app.Tokens.Lookup(ctx, address)
	if errors.Is(err, token.ErrNotFound) {
		return fmt.Errorf("token not found: %s", address)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name\t%s (%s)\n", rec.Name, rec.Symbol)
	fmt.Fprintf(w, "Address\t%s\n", rec.Address)
	fmt.Fprintf(w, "Price\t%s\n", format.PriceDecimal(rec.Price))
	fmt.Fprintf(w, "Change 1h/24h/7d\t%s / %s / %s\n",
		format.Percent(rec.PriceChange1h), format.Percent(rec.PriceChange24h), format.Percent(rec.PriceChange7d))
	fmt.Fprintf(w, "Liquidity\t%s\n", format.USD(rec.Liquidity))
	fmt.Fprintf(w, "Volume 24h\t%s\n", format.USD(rec.Volume24h))
	fmt.Fprintf(w, "Market cap\t%s\n", format.USD(rec.MarketCap))
	fmt.Fprintf(w, "Txns 24h\t%d buys / %d sells\n", rec.Txns24h.Buys, rec.Txns24h.Sells)
	fmt.Fprintf(w, "Age\t%s\n", format.Age(rec.CreatedAt*1000, c.now()))
	if rec.PairAddress != "" {
		fmt.Fprintf(w, "Pair\t%s (%s)\n", format.TruncateAddress(rec.PairAddress, 6, 4), rec.DexID)
	}
	if rec.LiveSource != domain.LiveSourceNone {
		fmt.Fprintf(w, "Source\t%s\n", rec.LiveSource)
	}
	fmt.Fprintf(w, "Logo\t%s\n", format.LogoURL(rec))
	return w.Flush()
}

func (c *cli) search(ctx context.Context, q string) error {
	recs := c.app.Tokens.Search(ctx, q)
	if len(recs) == 0 {
		fmt.Fprintf(c.out, "no tokens match %q\n", q)
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tNAME\tADDRESS\tPRICE\tLIQUIDITY")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Symbol, r.Name, format.TruncateAddress(r.Address, 6, 4), format.PriceDecimal(r.Price), format.USD(r.Liquidity))
	}
	return w.Flush()
}

func (c *cli) wallet(ctx context.Context, address string) error {
	nw, err := c.app.Wallets.NetWorth(ctx, address)
	if errors.Is(err, wallet.ErrInvalidAddress) {
		return fmt.Errorf("invalid wallet address: %s", address)
	}
	if err != nil {
		return err
	}

	total, _ := nw.TotalValueUSD.Float64()
	native, _ := nw.Native.ValueUSD.Float64()

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Wallet\t%s\n", nw.Wallet)
	fmt.Fprintf(w, "Net worth\t%s\n", format.USD(total))
	fmt.Fprintf(w, "%s\t%s\t%s\n", nw.Native.Symbol, nw.Native.Balance.StringFixed(4), format.USD(native))
	for _, h := range nw.Tokens {
		value, _ := h.ValueUSD.Float64()
		fmt.Fprintf(w, "%s\t%s\t%s\n", h.Token.Symbol, h.Balance.StringFixed(4), format.USD(value))
	}
	return w.Flush()
}

func (c *cli) printPage(p listing.Page) {
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSYMBOL\tNAME\tPRICE\t24H\tLIQUIDITY\tVOLUME\tMCAP\tAGE")
	for _, item := range p.Items {
		r := item.Record
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			item.Rank, r.Symbol, r.Name,
			format.PriceDecimal(r.Price), format.Percent(r.PriceChange24h),
			format.USD(r.Liquidity), format.USD(r.Volume24h), format.USD(r.MarketCap),
			format.Age(r.CreatedAt*1000, c.now()))
	}
	w.Flush()

	sortKey := p.SortKey
	if sortKey == "" {
		sortKey = "catalog"
	}
	fmt.Fprintf(c.out, "page %d/%d (%d tokens) sort=%s %s scope=%s\n",
		p.Page, p.TotalPages, p.TotalCount, sortKey, p.Direction, p.Scope)
}

// browse reads navigation commands from in until q or EOF.
func (c *cli) browse(ctx context.Context, in io.Reader) error {
	view := listing.NewView(c.app.Listing)
	page, _ := view.Navigate(ctx, view.Request())
	c.printPage(page)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "[n]ext [p]rev [s <key>] sort [d]irection [q]uit > ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}

		req := view.Request()
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "n":
			if req.Page >= view.Current().TotalPages {
				continue
			}
			req.Page++
		case "p":
			if req.Page <= 1 {
				continue
			}
			req.Page--
		case "s":
			if len(fields) < 2 {
				fmt.Fprintln(c.out, "usage: s <key>")
				continue
			}
			req.SortKey = fields[1]
		case "d":
			if req.Direction == query.Asc {
				req.Direction = query.Desc
			} else {
				req.Direction = query.Asc
			}
		case "q":
			return nil
		default:
			fmt.Fprintf(c.out, "unknown command %q\n", fields[0])
			continue
		}

		if page, ok := view.Navigate(ctx, req); ok {
			c.printPage(page)
		}
	}
}
