package main

import (
	"afribook/internal/bookings/pricing"
	"afribook/pkg/app"
	"afribook/pkg/config"
	apperrors "afribook/pkg/errors"
	"afribook/pkg/model"
	"afribook/pkg/sanitizer"
	"afribook/pkg/session"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

const ServiceName = "afribook"

var buildVersion = "dev"

// invoiceFlags collects repeated -invoice paths.
type invoiceFlags []string

func (f *invoiceFlags) String() string { return strings.Join(*f, ",") }

func (f *invoiceFlags) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "login":
		err = commandLogin(args)
	case "logout":
		err = commandLogout(args)
	case "whoami":
		err = commandWhoami(args)
	case "apartments":
		err = commandApartments(args)
	case "book":
		err = commandBook(args)
	case "quote":
		err = commandQuote(args)
	case "version", "--version", "-v":
		fmt.Println(buildVersion)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", apperrors.UserMessage(err, err.Error()))
		os.Exit(1)
	}
}

// printNavigation reports where the app would take the agent next.
func printNavigation(_ context.Context, dest session.Destination) {
	fmt.Fprintf(os.Stderr, "navigate: %s\n", dest)
}

// open wires the client and restores any stored session.
func open(ctx context.Context) (*app.Client, error) {
	_ = godotenv.Load()
	cfg := config.Load(ServiceName)

	c, err := app.NewClient(ctx, cfg, session.NavigatorFunc(printNavigation), nil)
	if err != nil {
		return nil, err
	}
	if err := c.Session.Initialize(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func requireSession(c *app.Client) error {
	if !c.Session.IsAuthenticated() {
		return errors.New("not signed in, run `afribook login` first")
	}
	return nil
}

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	identifier := fs.String("identifier", "", "Email or phone number")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	fs.Parse(args)

	if strings.TrimSpace(*identifier) == "" {
		return errors.New("-identifier is required")
	}

	secret := *password
	if secret == "" {
		fmt.Print("Password: ")
		bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Print("\n")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		secret = string(bytes)
	}

	ctx := context.Background()
	c, err := open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Session.Login(ctx, *identifier, secret); err != nil {
		return err
	}
	fmt.Printf("signed in as %s\n", describe(c.Session.User()))
	return nil
}

func commandLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	fs.Parse(args)

	ctx := context.Background()
	c, err := open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("signed out")
	return nil
}

func commandWhoami(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	fs.Parse(args)

	ctx := context.Background()
	c, err := open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := requireSession(c); err != nil {
		return err
	}
	user := c.Session.User()
	fmt.Println(describe(user))
	if user.Phone != "" {
		fmt.Printf("phone: %s\n", displayPhone(user.Phone, c.Config.PhoneRegion))
	}
	return nil
}

func commandApartments(args []string) error {
	fs := flag.NewFlagSet("apartments", flag.ExitOnError)
	fs.Parse(args)

	ctx := context.Background()
	c, err := open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := requireSession(c); err != nil {
		return err
	}
	apartments, err := c.Bookings.Apartments(ctx)
	if err != nil {
		return err
	}
	if len(apartments) == 0 {
		fmt.Println("no apartments")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCITY\tBEDS")
	for _, apt := range apartments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", apt.ID, apt.ApartmentName, apt.City, apt.Beds)
	}
	return w.Flush()
}

func bookingFlags(fs *flag.FlagSet) *model.BookingDraft {
	draft := &model.BookingDraft{}
	fs.StringVar(&draft.CheckInDate, "check-in", "", "Check-in date (YYYY-MM-DD)")
	fs.StringVar(&draft.CheckOutDate, "check-out", "", "Check-out date (YYYY-MM-DD)")
	fs.StringVar(&draft.ApartmentID, "apartment", "", "Apartment identifier")
	fs.StringVar(&draft.ActualPrice, "actual", "", "Actual price")
	fs.StringVar(&draft.SellingPrice, "selling", "", "Selling price")
	fs.StringVar(&draft.ClientName, "client-name", "", "Client name")
	fs.StringVar(&draft.ClientPhone, "client-phone", "", "Client phone number")
	fs.StringVar(&draft.ClientAddress, "client-address", "", "Client address")
	return draft
}

func commandBook(args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	draft := bookingFlags(fs)
	var invoices invoiceFlags
	fs.Var(&invoices, "invoice", "Invoice file to attach (repeatable)")
	fs.Parse(args)

	for _, path := range invoices {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open invoice: %w", err)
		}
		defer f.Close()
		draft.Invoices = append(draft.Invoices, model.Invoice{Name: filepath.Base(path), Content: f})
	}

	ctx := context.Background()
	c, err := open(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := c.Bookings.Submit(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Println(result.Message)
	if result.BookingID != "" {
		fmt.Printf("booking id: %s\n", result.BookingID)
	}
	if draft.ClientPhone != "" {
		fmt.Printf("client phone: %s\n", displayPhone(draft.ClientPhone, c.Config.PhoneRegion))
	}
	fmt.Printf("profit: %s\n", c.Bookings.Quote(draft).ProfitString())
	return nil
}

func commandQuote(args []string) error {
	fs := flag.NewFlagSet("quote", flag.ExitOnError)
	actual := fs.String("actual", "", "Actual price")
	selling := fs.String("selling", "", "Selling price")
	fs.Parse(args)

	quote := pricing.Compute(*actual, *selling)
	fmt.Printf("actual:  %s\nselling: %s\nprofit:  %s\nmargin:  %s%%\n",
		amount(quote.Actual), amount(quote.Selling), quote.ProfitString(), quote.Margin)
	return nil
}

// displayPhone shows a dialable number in E.164 and anything else as stored.
func displayPhone(phone, region string) string {
	if !sanitizer.IsValidPhone(phone, region) {
		return phone
	}
	return sanitizer.NormalizePhone(phone, region)
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func describe(u *model.User) string {
	if u == nil {
		return "nobody"
	}
	if name := u.DisplayName(); name != "" {
		return fmt.Sprintf("%s <%s>", name, u.Email)
	}
	return u.AgentID()
}

func printUsage() {
	fmt.Println(`afribook - agent booking client

Usage:
  afribook login -identifier <email|phone> [-password <password>]
  afribook logout
  afribook whoami
  afribook apartments
  afribook book -check-in <date> -check-out <date> -apartment <id> -actual <amount> -selling <amount>
                [-client-name <name>] [-client-phone <phone>] [-client-address <address>] [-invoice <file>]...
  afribook quote -actual <amount> -selling <amount>
  afribook version`)
}
