package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/shaharge/library-circulation/internal/app"
	"github.com/shaharge/library-circulation/internal/config"
	"github.com/shaharge/library-circulation/internal/lib/sl"
	"github.com/shaharge/library-circulation/internal/models"
	"github.com/shaharge/library-circulation/internal/services/admin"
	"github.com/shaharge/library-circulation/internal/services/lending"
	"github.com/shaharge/library-circulation/internal/services/user"
	"github.com/shaharge/library-circulation/internal/storage"
)

const (
	envLocal = "local"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)
	logger.Info("starting library circulation", slog.String("env", cfg.Env), slog.String("data_dir", cfg.DataDir))

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", sl.Err(err))
		os.Exit(1)
	}

	c := &console{app: a, in: bufio.NewReader(os.Stdin), log: logger}
	c.run()
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// console интерактивное меню поверх сервисов приложения. Любая отклонённая
// операция печатает причину и возвращает в меню.
type console struct {
	app    *app.App
	in     *bufio.Reader
	log    *slog.Logger
	member *models.Member
}

func (c *console) run() {
	for {
		fmt.Println("\n=== Library ===")
		fmt.Println("1. Register")
		fmt.Println("2. Member login")
		fmt.Println("3. Admin login")
		fmt.Println("0. Exit")

		switch c.prompt("> ") {
		case "1":
			c.register()
		case "2":
			c.memberLogin()
		case "3":
			c.adminLogin()
		case "0":
			fmt.Println("Bye.")
			return
		default:
			fmt.Println("Unknown option.")
		}
	}
}

func (c *console) register() {
	req := models.RegisterRequest{
		Username: c.prompt("Username: "),
		Password: c.promptPassword("Password: "),
		Email:    c.prompt("Email: "),
	}
	if _, err := c.app.Users.Register(req); err != nil {
		c.printRejection(err)
		return
	}
	fmt.Println("Registered. You can log in now.")
}

func (c *console) memberLogin() {
	username := c.prompt("Username: ")
	pass := c.promptPassword("Password: ")

	member, err := c.app.Users.Login(username, pass)
	if err != nil {
		c.printRejection(err)
		return
	}
	c.member = member
	c.memberMenu()
	c.member = nil
}

func (c *console) memberMenu() {
	for {
		fmt.Printf("\n=== Member: %s ===\n", c.member.Username)
		fmt.Println("1. Search books by title")
		fmt.Println("2. Search books by author")
		fmt.Println("3. Search books by ISBN")
		fmt.Println("4. Search CDs")
		fmt.Println("5. Borrow item")
		fmt.Println("6. Return item")
		fmt.Println("7. Pay fine")
		fmt.Println("8. My loans")
		fmt.Println("9. My overdue report")
		fmt.Println("10. Unregister")
		fmt.Println("0. Logout")

		switch c.prompt("> ") {
		case "1":
			c.printItems(c.app.Catalog.FindByTitle(c.prompt("Title: ")))
		case "2":
			c.printItems(c.app.Catalog.FindByAuthor(c.prompt("Author: ")))
		case "3":
			c.printItems(c.app.Catalog.FindByISBN(c.prompt("ISBN: ")))
		case "4":
			c.printItems(c.app.Catalog.SearchCDs(c.prompt("Title or artist: ")))
		case "5":
			c.borrow()
		case "6":
			c.returnItem()
		case "7":
			c.payFine()
		case "8":
			c.myLoans()
		case "9":
			fmt.Print(c.app.Report.Generate(c.member.Username))
		case "10":
			if c.unregister() {
				return
			}
		case "0":
			return
		default:
			fmt.Println("Unknown option.")
		}
	}
}

func (c *console) borrow() {
	item, ok := c.promptItem()
	if !ok {
		return
	}
	loan, err := c.app.Lending.Borrow(c.member.Username, item)
	if err != nil {
		c.printRejection(err)
		return
	}
	fmt.Printf("Borrowed %q, due %s.\n", loan.Item.Title, loan.DueDate.Format("2006-01-02"))
}

func (c *console) returnItem() {
	item, ok := c.promptItem()
	if !ok {
		return
	}
	fineAmount, err := c.app.Lending.Return(c.member.Username, item)
	if err != nil {
		c.printRejection(err)
		return
	}
	if fineAmount > 0 {
		fmt.Printf("Returned. Late fine: %d NIS added to your balance.\n", fineAmount)
	} else {
		fmt.Println("Returned on time. Thank you!")
	}
}

func (c *console) payFine() {
	current := c.app.Members.FindByUsername(c.member.Username)
	if current == nil {
		fmt.Println("Account not found.")
		return
	}
	fmt.Printf("Current fine balance: %d NIS\n", current.FineBalance)
	if current.FineBalance == 0 {
		return
	}

	amount, err := strconv.Atoi(c.prompt("Amount to pay: "))
	if err != nil {
		fmt.Println("Amount must be a whole number of NIS.")
		return
	}
	if err := c.app.Lending.PayFine(c.member.Username, amount); err != nil {
		c.printRejection(err)
		return
	}
	fmt.Println("Payment accepted.")
}

func (c *console) myLoans() {
	loans := c.app.Ledger.LoansOf(c.member.Username)
	if len(loans) == 0 {
		fmt.Println("No loans on record.")
		return
	}
	for _, loan := range loans {
		status := "active"
		if loan.Returned {
			status = "returned"
		}
		fmt.Printf("- %s (%s) | borrowed %s | due %s | %s",
			loan.Item.Title, loan.Item.Kind,
			loan.BorrowedDate.Format("2006-01-02"), loan.DueDate.Format("2006-01-02"), status)
		if loan.FineAmount > 0 {
			fmt.Printf(" | fine %d NIS", loan.FineAmount)
		}
		fmt.Println()
	}
}

func (c *console) unregister() bool {
	if c.prompt("Delete your account? (yes/no): ") != "yes" {
		return false
	}
	if err := c.app.Users.Unregister(c.member.Username); err != nil {
		c.printRejection(err)
		return false
	}
	fmt.Println("Account removed.")
	return true
}

func (c *console) adminLogin() {
	username := c.prompt("Admin username: ")
	pass := c.promptPassword("Admin password: ")

	if err := c.app.Admin.Login(username, pass); err != nil {
		c.printRejection(err)
		return
	}
	c.adminMenu()
	c.app.Admin.Logout()
}

func (c *console) adminMenu() {
	for {
		fmt.Println("\n=== Admin ===")
		fmt.Println("1. Add book")
		fmt.Println("2. Add CD")
		fmt.Println("3. List catalog")
		fmt.Println("4. Send overdue reminders")
		fmt.Println("5. Overdue report (all members)")
		fmt.Println("0. Logout")

		switch c.prompt("> ") {
		case "1":
			c.addBook()
		case "2":
			c.addCD()
		case "3":
			c.printItems(c.app.Catalog.All())
		case "4":
			fmt.Printf("Reminder run: %s\n", c.app.Reminder.Run())
		case "5":
			reports := c.app.Report.GenerateAll()
			if len(reports) == 0 {
				fmt.Println("No overdue loans.")
			}
			for _, rep := range reports {
				fmt.Printf("\n%s\n%s", rep.Username, rep)
			}
		case "0":
			return
		default:
			fmt.Println("Unknown option.")
		}
	}
}

func (c *console) addBook() {
	req := models.AddBookRequest{
		Title:  c.prompt("Title: "),
		Author: c.prompt("Author: "),
		ISBN:   c.prompt("ISBN: "),
	}
	if qty, err := strconv.Atoi(c.prompt("Quantity (empty = 1): ")); err == nil {
		req.Quantity = qty
	}
	if _, err := c.app.Admin.AddBook(req); err != nil {
		c.printRejection(err)
		return
	}
	fmt.Println("Book added.")
}

func (c *console) addCD() {
	req := models.AddCDRequest{
		Title:  c.prompt("Title: "),
		Artist: c.prompt("Artist: "),
	}
	if qty, err := strconv.Atoi(c.prompt("Quantity (empty = 1): ")); err == nil {
		req.Quantity = qty
	}
	if _, err := c.app.Admin.AddCD(req); err != nil {
		c.printRejection(err)
		return
	}
	fmt.Println("CD added.")
}

// promptItem спрашивает, о каком носителе речь: книги ищутся по ISBN,
// CD по названию и исполнителю.
func (c *console) promptItem() (*models.Media, bool) {
	switch strings.ToLower(c.prompt("Book or CD? (b/c): ")) {
	case "b", "book":
		isbn := c.prompt("ISBN: ")
		if isbn == "" {
			fmt.Println("ISBN is required.")
			return nil, false
		}
		return &models.Media{Kind: models.KindBook, ISBN: isbn}, true
	case "c", "cd":
		title := c.prompt("Title: ")
		artist := c.prompt("Artist: ")
		if title == "" || artist == "" {
			fmt.Println("Title and artist are required.")
			return nil, false
		}
		return &models.Media{Kind: models.KindCD, Title: title, Artist: artist}, true
	default:
		fmt.Println("Unknown media kind.")
		return nil, false
	}
}

func (c *console) printItems(items []*models.Media) {
	if len(items) == 0 {
		fmt.Println("Nothing found.")
		return
	}
	for _, item := range items {
		switch item.Kind {
		case models.KindCD:
			fmt.Printf("- [CD] %s — %s | copies: %d\n", item.Title, item.Artist, item.Quantity)
		default:
			fmt.Printf("- [Book] %s — %s | ISBN %s | copies: %d\n", item.Title, item.Author, item.ISBN, item.Quantity)
		}
	}
}

func (c *console) prompt(label string) string {
	fmt.Print(label)
	line, err := c.in.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func (c *console) promptPassword(label string) string {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		// stdin не терминал (pipe, тесты) — читаем строку как есть
		return c.prompt("")
	}
	return string(raw)
}

// printRejection переводит известные отказы в короткие сообщения для
// пользователя; неожиданные ошибки уходят в лог целиком.
func (c *console) printRejection(err error) {
	switch {
	case errors.Is(err, lending.ErrOverdueItems):
		fmt.Println("You have overdue items. Return them before borrowing again.")
	case errors.Is(err, lending.ErrUnpaidFines):
		fmt.Println("You have unpaid fines. Pay them before borrowing.")
	case errors.Is(err, lending.ErrAlreadyBorrowed):
		fmt.Println("You already hold this item.")
	case errors.Is(err, lending.ErrOutOfStock):
		fmt.Println("No copies available right now.")
	case errors.Is(err, lending.ErrNoActiveLoan):
		fmt.Println("You have no active loan for this item.")
	case errors.Is(err, lending.ErrMemberNotFound), errors.Is(err, user.ErrMemberNotFound):
		fmt.Println("Member not found.")
	case errors.Is(err, user.ErrUsernameTaken):
		fmt.Println("This username is already taken.")
	case errors.Is(err, user.ErrEmailTaken):
		fmt.Println("This email is already registered.")
	case errors.Is(err, user.ErrInvalidCredentials), errors.Is(err, admin.ErrInvalidCredentials):
		fmt.Println("Invalid username or password.")
	case errors.Is(err, user.ErrHasOverdueItems):
		fmt.Println("Return your overdue items first.")
	case errors.Is(err, user.ErrHasActiveLoans):
		fmt.Println("Return all borrowed items first.")
	case errors.Is(err, user.ErrUnpaidFines):
		fmt.Println("Pay your fines first.")
	case errors.Is(err, storage.ErrInvalidAmount):
		fmt.Println("Invalid amount: it must be positive and not exceed your balance.")
	case errors.Is(err, storage.ErrItemNotFound):
		fmt.Println("No such item in the catalog.")
	case errors.Is(err, storage.ErrDuplicateItem):
		fmt.Println("A similar item already exists in the catalog.")
	case errors.Is(err, storage.ErrBlankField):
		fmt.Println("All fields are required.")
	default:
		fmt.Println("Operation failed:", err)
		c.log.Debug("operation rejected", sl.Err(err))
	}
}
