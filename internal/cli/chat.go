// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL.
//
// Slash commands:
//
//	/new                     Start a new conversation
//	/list [all|archived]     List conversations
//	/switch <ref>            Make a conversation active
//	/show                    Print the active conversation
//	/title                   Show the active conversation's title
//	/search <text>           Find conversations by title or content
//	/archive [refs...]       Archive conversations (default: active)
//	/unarchive <refs...>     Restore archived conversations
//	/delete [refs...]        Delete conversations (default: active)
//	/select                  Enter selection mode
//	/toggle <refs...>        Toggle conversations in the selection
//	/all [all|archived]      Select every listed conversation
//	/archive-selected        Archive the selection
//	/unarchive-selected      Unarchive the selection
//	/delete-selected         Delete the selection
//	/cancel                  Leave selection mode
//	/status                  Show the active provider
//	/reprobe                 Probe providers again
//	/models                  List the active provider's models
//	/model [name|default]    Show or override the model
//	/help, /h, /?            Show help
//	/quit, /exit, /q         Leave the chat
//
// A <ref> is the number shown by /list or a conversation id prefix.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/localgpt/internal/chat"
	"github.com/jeranaias/localgpt/internal/config"
	"github.com/jeranaias/localgpt/internal/model"
	"github.com/jeranaias/localgpt/internal/session"
)

// historyFileName is the REPL input history inside the config directory.
const historyFileName = "chat_history"

// maxLineBytes bounds one line of piped input.
const maxLineBytes = 4 << 20

func newChatCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat (the default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, flags)
		},
	}
}

func runChat(cmd *cobra.Command, flags *globalFlags) error {
	return withApp(cmd, flags, func(app *App) error {
		in := newLineReader(cmd.InOrStdin())
		defer func() {
			if err := in.Close(); err != nil {
				log.Debug().Err(err).Msg("saving input history")
			}
		}()

		r := &Repl{
			app:   app,
			out:   cmd.OutOrStdout(),
			in:    in,
			width: GetTerminalWidth(),
		}
		return r.Run(cmd.Context())
	})
}

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader reads one line of user input per call. It returns io.EOF when
// input ends.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// newLineReader uses liner for terminals and a plain scanner for pipes.
func newLineReader(r io.Reader) lineReader {
	if isTerminalReader(r) {
		return newLinerReader()
	}
	return newScanReader(r)
}

// linerReader provides line editing and persistent history.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	lr := &linerReader{line: line, historyFile: filepath.Join(dir, historyFileName)}

	if f, err := os.Open(lr.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}
	return lr
}

func (l *linerReader) Prompt(prompt string) (string, error) {
	input, err := l.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		l.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history with owner-only permissions and restores the
// terminal.
func (l *linerReader) Close() error {
	defer l.line.Close()

	if err := os.MkdirAll(filepath.Dir(l.historyFile), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(l.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = l.line.WriteHistory(f)
	return err
}

// scanReader reads piped input without echoing a prompt.
type scanReader struct {
	scanner *bufio.Scanner
}

func newScanReader(r io.Reader) *scanReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &scanReader{scanner: scanner}
}

func (s *scanReader) Prompt(string) (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scanReader) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

// Repl runs the interactive chat loop against an App.
type Repl struct {
	app   *App
	out   io.Writer
	in    lineReader
	width int
}

// errQuit ends the loop from a slash command.
var errQuit = errors.New("quit")

// Run probes the providers, prints the banner and reads input until EOF or
// /quit.
func (r *Repl) Run(ctx context.Context) error {
	r.app.Router.ProbeAll(ctx)
	r.printBanner()

	for {
		// An interrupt received while a reply was pending ends the session.
		if ctx.Err() != nil {
			fmt.Fprintln(r.out)
			r.printGoodbye()
			return nil
		}

		input, err := r.in.Prompt(r.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				r.printGoodbye()
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			err := r.handleCommand(ctx, input)
			if errors.Is(err, errQuit) {
				r.printGoodbye()
				return nil
			}
			if err != nil {
				fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			continue
		}

		if r.app.Store.InSelectionMode() {
			fmt.Fprintln(r.out, WarningStyle.Render("Selection mode is on. Use /cancel before sending messages."))
			continue
		}
		r.send(ctx, input)
	}
}

func (r *Repl) prompt() string {
	if r.app.Store.InSelectionMode() {
		return fmt.Sprintf("[select %d] > ", len(r.app.Store.Selection()))
	}
	return "> "
}

// send delivers one message. A generation runs until it completes or its
// provider timeout expires; an interrupt does not abort it.
func (r *Repl) send(ctx context.Context, text string) {
	res, err := r.app.Chat.SendUserMessage(context.WithoutCancel(ctx), text)
	if err != nil {
		fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		return
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, RenderRole(model.RoleAssistant))
	body := WrapText(res.Reply.Content, r.width)
	if res.Failed() {
		body = ErrorStyle.Render(body)
	}
	fmt.Fprintln(r.out, body)
	fmt.Fprintln(r.out)
}

func (r *Repl) printBanner() {
	desc := r.app.Router.Active()
	fmt.Fprintln(r.out, TitleStyle.Render("localgpt"))
	fmt.Fprintln(r.out, RenderSeparator(30))
	fmt.Fprintf(r.out, "%s %s\n", RenderLabel("Status:"), RenderProviderStatus(desc.Kind, r.app.Router.Status()))
	if !r.app.Router.InDemoMode() {
		fmt.Fprintf(r.out, "%s %s (%s)\n", RenderLabel("Model:"), ValueStyle.Render(r.app.Router.Model()), desc.Name)
	}

	conv := r.app.Store.Active()
	fmt.Fprintf(r.out, "%s %s\n", RenderLabel("Conversation:"), ValueStyle.Render(conv.Title))
	fmt.Fprintln(r.out, DimStyle.Render("Type /help for commands, /quit to exit."))
	fmt.Fprintln(r.out)

	if len(conv.Messages) > 0 {
		writeMessage(r.out, conv.Messages[len(conv.Messages)-1], r.width)
	}
}

func (r *Repl) printGoodbye() {
	if err := r.app.Store.LastPersistError(); err != nil {
		fmt.Fprintf(r.out, "%s conversations could not be saved: %v\n", WarningStyle.Render("[Warning]"), err)
	}
	fmt.Fprintln(r.out, DimStyle.Render("Goodbye."))
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func (r *Repl) handleCommand(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]
	store := r.app.Store

	switch command {
	case "/help", "/h", "/?", "/":
		r.printHelp()

	case "/quit", "/exit", "/q":
		return errQuit

	// Conversations

	case "/new":
		id := store.CreateConversation()
		fmt.Fprintf(r.out, "%s Started conversation %s\n", SuccessStyle.Render("[OK]"), shortID(id))
		conv := store.Active()
		writeMessage(r.out, conv.Messages[0], r.width)

	case "/list", "/ls":
		f, err := parseFilter(strings.Join(args, " "))
		if err != nil {
			return err
		}
		writeConversationTable(r.out, store.List(f), newTableView(store, r.width))

	case "/switch", "/open":
		if len(args) != 1 {
			return errors.New("usage: /switch <ref>")
		}
		id, err := resolveRef(store, args[0])
		if err != nil {
			return err
		}
		if err := store.SetActive(id); err != nil {
			return err
		}
		writeTranscript(r.out, store.Active(), r.width)

	case "/show":
		writeTranscript(r.out, store.Active(), r.width)

	case "/title":
		fmt.Fprintln(r.out, ValueStyle.Render(store.DeriveTitle(store.ActiveID())))

	case "/search":
		if len(args) == 0 {
			return errors.New("usage: /search <text>")
		}
		writeConversationTable(r.out, store.Search(strings.Join(args, " ")), newTableView(store, r.width))

	case "/archive", "/unarchive":
		archived := command == "/archive"
		ids, err := r.refsOrActive(args, archived)
		if err != nil {
			return err
		}
		n := store.SetArchived(ids, archived)
		fmt.Fprintf(r.out, "%s %s %s\n", SuccessStyle.Render("[OK]"), pastTense(archived), plural(n, "conversation"))

	case "/delete", "/rm":
		ids, err := r.refsOrActive(args, true)
		if err != nil {
			return err
		}
		n := store.DeleteConversations(ids)
		fmt.Fprintf(r.out, "%s Deleted %s\n", SuccessStyle.Render("[OK]"), plural(n, "conversation"))

	// Selection

	case "/select":
		store.EnterSelectionMode()
		fmt.Fprintln(r.out, DimStyle.Render("Selection mode: /toggle <ref>, /all, then /archive-selected or /delete-selected. /cancel to leave."))
		writeConversationTable(r.out, store.List(session.FilterAll), newTableView(store, r.width))

	case "/toggle":
		if !store.InSelectionMode() {
			return errors.New("not in selection mode (use /select)")
		}
		if len(args) == 0 {
			return errors.New("usage: /toggle <ref>...")
		}
		ids, err := resolveRefs(store, args)
		if err != nil {
			return err
		}
		for _, id := range ids {
			store.ToggleSelection(id)
		}
		writeConversationTable(r.out, store.List(session.FilterAll), newTableView(store, r.width))

	case "/all":
		if !store.InSelectionMode() {
			return errors.New("not in selection mode (use /select)")
		}
		f, err := parseFilter(strings.Join(args, " "))
		if err != nil {
			return err
		}
		n := store.SelectAll(f)
		fmt.Fprintf(r.out, "%s selected\n", plural(n, "conversation"))

	case "/archive-selected", "/unarchive-selected":
		if !store.InSelectionMode() {
			return errors.New("not in selection mode (use /select)")
		}
		archived := command == "/archive-selected"
		n := store.ArchiveSelected(archived)
		fmt.Fprintf(r.out, "%s %s %s\n", SuccessStyle.Render("[OK]"), pastTense(archived), plural(n, "conversation"))

	case "/delete-selected":
		if !store.InSelectionMode() {
			return errors.New("not in selection mode (use /select)")
		}
		n := store.DeleteSelected()
		fmt.Fprintf(r.out, "%s Deleted %s\n", SuccessStyle.Render("[OK]"), plural(n, "conversation"))

	case "/cancel":
		store.ExitSelectionMode()
		fmt.Fprintln(r.out, DimStyle.Render("Selection cleared."))

	// Providers

	case "/status":
		r.printStatus()

	case "/reprobe":
		r.app.Router.Reprobe(ctx)
		r.printStatus()

	case "/models":
		return r.listModels(ctx)

	case "/model":
		switch {
		case len(args) == 0:
		case strings.EqualFold(args[0], "default"):
			r.app.Router.SetModel("")
		default:
			r.app.Router.SetModel(args[0])
		}
		fmt.Fprintf(r.out, "%s %s\n", RenderLabel("Model:"), ValueStyle.Render(r.modelLabel()))

	default:
		return fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
	return nil
}

// refsOrActive resolves args, or returns the active conversation when args
// is empty and allowActive is set.
func (r *Repl) refsOrActive(args []string, allowActive bool) ([]string, error) {
	if len(args) == 0 {
		if !allowActive {
			return nil, errors.New("name at least one conversation")
		}
		return []string{r.app.Store.ActiveID()}, nil
	}
	return resolveRefs(r.app.Store, args)
}

func (r *Repl) modelLabel() string {
	if r.app.Router.InDemoMode() {
		return "(none, demo mode)"
	}
	return r.app.Router.Model()
}

func (r *Repl) printStatus() {
	desc := r.app.Router.Active()
	fmt.Fprintf(r.out, "%s %s\n", RenderLabel("Status:"), RenderProviderStatus(desc.Kind, r.app.Router.Status()))
	fmt.Fprintf(r.out, "%s %s\n", RenderLabel("Provider:"), ValueStyle.Render(desc.Name))
	fmt.Fprintf(r.out, "%s %s\n", RenderLabel("Model:"), ValueStyle.Render(r.modelLabel()))
	fmt.Fprintf(r.out, "%s %s\n", RenderLabel("Conversations:"), ValueStyle.Render(plural(r.app.Store.Len(), "conversation")))
}

func (r *Repl) listModels(ctx context.Context) error {
	models, err := r.app.Router.Models(ctx)
	if err != nil {
		return chatError(err)
	}
	if len(models) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("No models available."))
		return nil
	}
	current := r.app.Router.Model()
	for _, m := range models {
		marker := "  "
		if m == current {
			marker = SuccessStyle.Render("* ")
		}
		fmt.Fprintln(r.out, marker+m)
	}
	return nil
}

func (r *Repl) printHelp() {
	fmt.Fprintln(r.out, SectionStyle.Render("Commands"))
	for _, h := range replHelp {
		fmt.Fprintf(r.out, "  %s %s\n", RenderLabel(h[0]), DimStyle.Render(h[1]))
	}
	fmt.Fprintln(r.out, DimStyle.Render("<ref> is a number from /list or an id prefix."))
}

var replHelp = [][2]string{
	{"/new", "Start a new conversation"},
	{"/list [filter]", "List conversations (all, archived)"},
	{"/switch <ref>", "Make a conversation active"},
	{"/show", "Print the active conversation"},
	{"/title", "Show the active title"},
	{"/search <text>", "Find conversations"},
	{"/archive [refs]", "Archive (default: active)"},
	{"/unarchive <refs>", "Restore from the archive"},
	{"/delete [refs]", "Delete (default: active)"},
	{"/select", "Enter selection mode"},
	{"/toggle <refs>", "Toggle in the selection"},
	{"/all [filter]", "Select every listed conversation"},
	{"/archive-selected", "Archive the selection"},
	{"/unarchive-selected", "Unarchive the selection"},
	{"/delete-selected", "Delete the selection"},
	{"/cancel", "Leave selection mode"},
	{"/status", "Show the active provider"},
	{"/reprobe", "Probe providers again"},
	{"/models", "List available models"},
	{"/model [name]", "Show or set the model"},
	{"/quit", "Leave the chat"},
}

func pastTense(archived bool) string {
	if archived {
		return "Archived"
	}
	return "Unarchived"
}

// chatError renders a provider failure the way chat replies do, without
// the "Error: " prefix the caller adds.
func chatError(err error) error {
	return errors.New(strings.TrimPrefix(chat.DescribeError(err), "Error: "))
}
