// Command console is a direct-database admin utility: it creates accounts
// and credits token balances without going through the HTTP surface. Balance
// increase is deliberately not exposed over HTTP; this is the privileged
// path for it.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/mailadvisor/backend/internal/server/models"
	"github.com/mailadvisor/backend/internal/server/repositories/repomanager"
)

const defaultSignupBonus = 10000

func usage() {
	fmt.Fprintf(os.Stderr, "usage: console [-d dsn] <create-account|credit> [options]\n")
	flag.PrintDefaults()
}

func main() {

	dsn := flag.String("d", os.Getenv("DATABASE_DSN"), "PostgreSQL DSN")
	flag.Usage = usage
	flag.Parse()

	if *dsn == "" {
		log.Fatal("database DSN is required (-d or DATABASE_DSN)")
	}
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	rm := repomanager.NewPostgresRepositoryManager()

	switch flag.Arg(0) {
	case "create-account":
		err = createAccount(ctx, db, rm, flag.Args()[1:])
	case "credit":
		err = credit(ctx, db, rm, flag.Args()[1:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%v", err)
	}
}

func createAccount(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, args []string) error {
	fs := flag.NewFlagSet("create-account", flag.ExitOnError)
	username := fs.String("u", "", "username")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("username is required (-u)")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("error reading password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	account, err := rm.Accounts(db).Create(ctx, &models.Account{
		Username:     *username,
		PasswordHash: string(hash),
		TokenAmount:  defaultSignupBonus,
	})
	if err != nil {
		return err
	}

	fmt.Printf("created account %s (%s), balance %d\n", account.Username, account.ID, account.TokenAmount)
	return nil
}

func credit(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, args []string) error {
	fs := flag.NewFlagSet("credit", flag.ExitOnError)
	username := fs.String("u", "", "username")
	amount := fs.Int64("n", 0, "tokens to credit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("username is required (-u)")
	}
	if *amount <= 0 {
		return fmt.Errorf("amount must be positive (-n)")
	}

	repo := rm.Accounts(db)
	if _, err := repo.GetByUsername(ctx, *username); err != nil {
		return err
	}
	if err := repo.IncreaseBalance(ctx, *username, *amount); err != nil {
		return err
	}

	account, err := repo.GetByUsername(ctx, *username)
	if err != nil {
		return err
	}

	fmt.Printf("credited %d tokens to %s, balance now %d\n", *amount, account.Username, account.TokenAmount)
	return nil
}
