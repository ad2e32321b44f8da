// Package main is an interactive shell for the ContactKeeper API. The client
// certificate given with -cert selects the user whose contacts are managed.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/atinyakov/ContactKeeper/internal/client"
	"github.com/atinyakov/ContactKeeper/internal/models"
)

var (
	version   string
	buildDate string
)

const helpText = `Available commands:
  me                         show the user the server sees
  list [categoryId]          list contacts, optionally of one category
  search <text>              find contacts by name
  get <id>                   show one contact
  add                        create a contact
  edit <id>                  edit a contact
  delete <id>                delete a contact
  categories                 list categories
  addcat <name>              create a category
  delcat <id>                delete a category
  link <categoryId> <id>     tag a contact
  unlink <categoryId> <id>   untag a contact
  exit`

// shell runs commands against the API, reading lines from in.
type shell struct {
	api    *client.Client
	prompt *client.Prompter
	out    io.Writer
}

// repl runs the interactive shell loop until "exit" or end of input.
func (s *shell) repl(ctx context.Context, lines *bufio.Scanner) {
	for {
		fmt.Fprint(s.out, "contactkeeper> ")
		if !lines.Scan() {
			return
		}
		line := strings.TrimSpace(lines.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			fmt.Fprintln(s.out, "Bye")
			return
		}
		if err := s.exec(ctx, line); err != nil {
			fmt.Fprintln(s.out, "Error:", err)
		}
	}
}

func (s *shell) exec(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "me":
		user, err := s.api.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, user)
	case "list":
		categoryID := models.AllCategories
		if len(args) > 0 {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			categoryID = id
		}
		contacts, err := s.api.Contacts(ctx, categoryID)
		if err != nil {
			return err
		}
		s.printContacts(contacts)
	case "search":
		contacts, err := s.api.Search(ctx, rest)
		if err != nil {
			return err
		}
		s.printContacts(contacts)
	case "get":
		id, err := oneID(args)
		if err != nil {
			return err
		}
		c, err := s.api.Contact(ctx, id)
		if err != nil {
			return err
		}
		c.ImageData = nil
		b, _ := json.MarshalIndent(c, "", "  ")
		fmt.Fprintln(s.out, string(b))
	case "add":
		in, err := s.prompt.Contact()
		if err != nil {
			return err
		}
		c, err := s.api.CreateContact(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Contact %d created\n", c.ID)
	case "edit":
		id, err := oneID(args)
		if err != nil {
			return err
		}
		cur, err := s.api.Contact(ctx, id)
		if err != nil {
			return err
		}
		in, err := s.prompt.Edit(cur)
		if err != nil {
			return err
		}
		if _, err := s.api.EditContact(ctx, id, in); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Contact updated")
	case "delete":
		id, err := oneID(args)
		if err != nil {
			return err
		}
		if err := s.api.DeleteContact(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Contact deleted")
	case "categories":
		cats, err := s.api.Categories(ctx)
		if err != nil {
			return err
		}
		for _, c := range cats {
			fmt.Fprintf(s.out, "%6d  %s\n", c.ID, c.Name)
		}
	case "addcat":
		if rest == "" {
			return fmt.Errorf("usage: addcat <name>")
		}
		cat, err := s.api.CreateCategory(ctx, rest)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Category %d created\n", cat.ID)
	case "delcat":
		id, err := oneID(args)
		if err != nil {
			return err
		}
		if err := s.api.DeleteCategory(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Category deleted")
	case "link", "unlink":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <categoryId> <contactId>", cmd)
		}
		categoryID, err := parseID(args[0])
		if err != nil {
			return err
		}
		contactID, err := parseID(args[1])
		if err != nil {
			return err
		}
		op := s.api.Link
		if cmd == "unlink" {
			op = s.api.Unlink
		}
		if err := op(ctx, categoryID, contactID); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "OK")
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func (s *shell) printContacts(contacts []models.Contact) {
	if len(contacts) == 0 {
		fmt.Fprintln(s.out, "No contacts")
		return
	}
	for _, c := range contacts {
		fmt.Fprintf(s.out, "%6d  %-30s %s\n", c.ID, c.FullName(), c.Email)
	}
}

func oneID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one id")
	}
	return parseID(args[0])
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func main() {
	var (
		baseURL  string
		certFile string
		keyFile  string
		caFile   string
		showVer  bool
	)

	flag.StringVar(&baseURL, "url", "https://localhost:8443", "server base URL")
	flag.StringVar(&certFile, "cert", "certs/client.crt", "path to client cert")
	flag.StringVar(&keyFile, "key", "certs/client.key", "path to client key")
	flag.StringVar(&caFile, "ca", "certs/ca.crt", "path to CA cert")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("ContactKeeper Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	api, err := client.NewMTLS(baseURL, certFile, keyFile, caFile)
	if err != nil {
		log.Fatal(err)
	}

	// Prompts and commands share one scanner so buffered input is not lost.
	lines := bufio.NewScanner(os.Stdin)
	sh := &shell{api: api, prompt: client.NewPrompterFromScanner(lines, os.Stdout), out: os.Stdout}
	sh.repl(context.Background(), lines)
}
