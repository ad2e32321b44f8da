package client

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/ContactKeeper/internal/models"
	"github.com/atinyakov/ContactKeeper/internal/service"
	"github.com/gabriel-vasile/mimetype"
)

const dateLayout = "2006-01-02"

// Prompter asks for contact fields line by line.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter reads answers from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return NewPrompterFromScanner(bufio.NewScanner(in), out)
}

// NewPrompterFromScanner shares in with other readers of the same input.
func NewPrompterFromScanner(in *bufio.Scanner, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// Contact asks for a new contact. Blank answers leave optional fields empty.
func (p *Prompter) Contact() (service.CreateInput, error) {
	var in service.CreateInput
	if err := p.fields(&in.ContactFields, nil); err != nil {
		return in, err
	}

	raw := p.ask("Category ids (comma separated)", "")
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return in, fmt.Errorf("invalid category id %q", s)
		}
		in.CategoryIDs = append(in.CategoryIDs, id)
	}
	return in, nil
}

// Edit asks for changes to c, showing the current values. Blank answers keep
// them; "-" clears an optional field.
func (p *Prompter) Edit(c *models.Contact) (service.EditInput, error) {
	in := service.EditInput{OwnerID: c.OwnerID, Created: c.Created, Version: c.Version}
	err := p.fields(&in.ContactFields, c)
	return in, err
}

func (p *Prompter) fields(f *service.ContactFields, cur *models.Contact) error {
	if cur == nil {
		cur = &models.Contact{}
	}
	f.FirstName = p.ask("First name", cur.FirstName)
	f.LastName = p.ask("Last name", cur.LastName)

	var birth string
	if cur.BirthDate != nil {
		birth = cur.BirthDate.Format(dateLayout)
	}
	if raw := p.ask("Birth date (YYYY-MM-DD)", birth); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return fmt.Errorf("invalid birth date %q", raw)
		}
		f.BirthDate = &t
	}

	f.Address1 = p.ask("Address", cur.Address1)
	f.Address2 = p.ask("Address line 2", cur.Address2)
	f.City = p.ask("City", cur.City)
	f.State = strings.ToUpper(p.ask("State", cur.State))
	f.ZipCode = p.ask("Zip code", cur.ZipCode)
	f.Email = p.ask("Email", cur.Email)
	f.Phone = p.ask("Phone", cur.Phone)

	if path := p.ask("Image file (leave empty to skip)", ""); path != "" {
		img, err := loadImage(path)
		if err != nil {
			return err
		}
		f.Image = img
	}
	return nil
}

// ask prints label with the current value and returns the trimmed answer,
// cur for a blank answer, or "" for "-".
func (p *Prompter) ask(label, cur string) string {
	if cur != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, cur)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	if !p.in.Scan() {
		return cur
	}
	switch answer := strings.TrimSpace(p.in.Text()); answer {
	case "":
		return cur
	case "-":
		return ""
	default:
		return answer
	}
}

func loadImage(path string) (*service.ImageUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %q: %w", path, err)
	}
	return &service.ImageUpload{ContentType: mimetype.Detect(data).String(), Data: data}, nil
}
