package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/0xobelisk/dubhe-website-sub001/pkg/contactform"
	"github.com/0xobelisk/dubhe-website-sub001/pkg/httpclient"
	"github.com/spf13/cobra"
)

var submitFlags struct {
	name        string
	email       string
	subject     string
	message     string
	messageFile string
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a contact form",
	Long: `Submit a contact form the way the website does.

The message is taken from --message or read from --message-file
("-" reads stdin). A failed submission exits non-zero with the
notification text.`,
	Example: `  contactctl submit --name Alice --email alice@example.com --subject technical --message "Hello"
  echo "Hello" | contactctl submit --name Alice --email alice@example.com --message-file -`,
	RunE: runSubmit,
}

func init() {
	f := submitCmd.Flags()
	f.StringVar(&submitFlags.name, "name", "", "sender name")
	f.StringVar(&submitFlags.email, "email", "", "sender email address")
	f.StringVar(&submitFlags.subject, "subject", "general", "subject option (see `contactctl subjects`)")
	f.StringVar(&submitFlags.message, "message", "", "message text")
	f.StringVar(&submitFlags.messageFile, "message-file", "", `read the message from a file, "-" for stdin`)
	submitCmd.MarkFlagsMutuallyExclusive("message", "message-file")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	message, err := readMessage(cmd)
	if err != nil {
		return err
	}

	client := httpclient.NewClient(time.Duration(timeout)*time.Second, nil)
	form := contactform.New(endpoint, client)
	defer form.Close()

	form.UpdateField(contactform.FieldName, submitFlags.name)
	form.UpdateField(contactform.FieldEmail, submitFlags.email)
	form.UpdateField(contactform.FieldSubject, submitFlags.subject)
	form.UpdateField(contactform.FieldMessage, message)
	if form.State().Fields.Message != message {
		return fmt.Errorf("message exceeds %d characters", contactform.MaxMessageLength)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(timeout)*time.Second)
	defer cancel()

	if err := form.Submit(ctx); err != nil {
		if errors.Is(err, contactform.ErrMissingField) || errors.Is(err, contactform.ErrInvalidEmail) {
			return fmt.Errorf("invalid form: %w", err)
		}
		return err
	}

	n := form.State().Notification
	if n == nil {
		return errors.New("no response recorded")
	}
	if n.Kind == contactform.NotificationError {
		return errors.New(n.Text)
	}
	fmt.Fprintln(cmd.OutOrStdout(), n.Text)
	return nil
}

func readMessage(cmd *cobra.Command) (string, error) {
	switch path := submitFlags.messageFile; path {
	case "":
		return submitFlags.message, nil
	case "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read message from stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read message file: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	}
}
