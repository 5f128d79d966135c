package cli

import (
	"bufio"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-isatty"
)

// MainLoop feeds lines to exec until end of input. Interactive terminal gets
// completion prompt, otherwise stdin is read line by line.
// First termination signal calls stop, second exits.
func MainLoop(tag string, exec func(line string), complete func(d prompt.Document) []prompt.Suggest, stop func()) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		<-signalCh
		if stop != nil {
			stop()
		}
		<-signalCh
		os.Exit(1)
	}()

	if isatty.IsTerminal(os.Stdin.Fd()) {
		prompt.New(exec, complete,
			prompt.OptionTitle(tag),
			prompt.OptionPrefix(tag+"> "),
		).Run()
		return
	}
	ReadLines(bufio.NewScanner(os.Stdin), exec)
}

// ReadLines calls exec with every trimmed non-empty line.
func ReadLines(s *bufio.Scanner, exec func(line string)) {
	for s.Scan() {
		if line := strings.TrimSpace(s.Text()); line != "" {
			exec(line)
		}
	}
}
