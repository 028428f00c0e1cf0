package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/storage/restapi"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	nowFunc          = time.Now         // mockable

	// interruptFunc delivers the stop signal for the polling loop; mockable.
	interruptFunc = func() <-chan os.Signal {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		return ch
	}

	errHelp             = errors.New("help provided")
	errAttendeeNotFound = errors.New("attendee not found on the event roster")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	sess   *session.Session
	api    *restapi.Client
	svc    *attendance.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  login -email EMAIL                 - log in (password prompted)")
	fmt.Println("  start -event ID                    - issue an attendance code and watch the roster")
	fmt.Println("  roster -event ID                   - show the event roster and its attendance stats")
	fmt.Println("  override -event ID -user USER_ID   - manually mark an attendee present")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	loginEmail := loginCmd.String("email", "", "The account's email. The password will be prompted next.")

	startCmd := flag.NewFlagSet("start", flag.ExitOnError)
	startEvent := startCmd.String("event", "", "The event id to start attendance for.")

	rosterCmd := flag.NewFlagSet("roster", flag.ExitOnError)
	rosterEvent := rosterCmd.String("event", "", "The event id.")

	overrideCmd := flag.NewFlagSet("override", flag.ExitOnError)
	overrideEvent := overrideCmd.String("event", "", "The event id.")
	overrideUser := overrideCmd.String("user", "", "The attendee's user id.")

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(*loginEmail, string(pwd))
	case "start":
		if err := startCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *startEvent == "" {
			startCmd.Usage()
			return errHelp
		}
		return cli.startAttendance(*startEvent)
	case "roster":
		if err := rosterCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *rosterEvent == "" {
			rosterCmd.Usage()
			return errHelp
		}
		return cli.roster(*rosterEvent)
	case "override":
		if err := overrideCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *overrideEvent == "" || *overrideUser == "" {
			overrideCmd.Usage()
			return errHelp
		}
		return cli.override(*overrideEvent, *overrideUser)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) login(email, pwd string) error {
	ctx, cancel := cli.ctx()
	defer cancel()

	token, acct, err := cli.api.Login(ctx, email, pwd)
	if err != nil {
		return err
	}
	if err = cli.sess.Set(token); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s.\n", acct.Email)
	return nil
}

// startAttendance issues a fresh code, displays its validity window and
// watches the roster until interrupted. Issuing a new code invalidates any
// prior one server-side.
func (cli *commandLine) startAttendance(eventID string) error {
	if !cli.sess.LoggedIn() {
		return session.ErrNoSession
	}
	ctx, cancel := cli.ctx()
	defer cancel()

	code, err := cli.svc.StartAttendance(ctx, eventID)
	if err != nil {
		return err
	}
	fmt.Printf("Attendance code: %s\n", code.Value)
	fmt.Printf("Valid for %s, until %s. Share it with attendees now.\n",
		code.Remaining(nowFunc().UTC()).Round(time.Second), code.ExpiresAt.Local().Format(time.Kitchen))

	stop := interruptFunc()
	poller := cli.svc.StartPolling(eventID, func(detail attendance.EventDetail) {
		printStats(detail.Stats())
	})
	<-stop
	poller.Stop()
	fmt.Println("Stopped watching the roster.")
	return nil
}

func (cli *commandLine) roster(eventID string) error {
	if !cli.sess.LoggedIn() {
		return session.ErrNoSession
	}
	ctx, cancel := cli.ctx()
	defer cancel()

	detail, err := cli.api.EventDetail(ctx, eventID)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d attendees\n", detail.Title, len(detail.Attendees))
	for _, att := range detail.Attendees {
		marked := "-"
		if att.MarkedAt.Valid {
			marked = att.MarkedAt.Time.Local().Format(time.Kitchen)
		}
		fmt.Printf("%-12s  %-10s  %-25s  %s\n", att.ID, att.Status, att.FullName(), marked)
	}
	printStats(detail.Stats())
	return nil
}

func (cli *commandLine) override(eventID, userID string) error {
	if !cli.sess.LoggedIn() {
		return session.ErrNoSession
	}
	ctx, cancel := cli.ctx()
	defer cancel()

	detail, err := cli.api.EventDetail(ctx, eventID)
	if err != nil {
		return err
	}
	var att *attendance.Attendee
	for i := range detail.Attendees {
		if detail.Attendees[i].ID == userID {
			att = &detail.Attendees[i]
			break
		}
	}
	if att == nil {
		return errAttendeeNotFound
	}

	detail, err = cli.svc.ManualOverride(ctx, eventID, *att)
	if err != nil {
		return err
	}
	fmt.Printf("%s marked present.\n", att.FullName())
	printStats(detail.Stats())
	return nil
}

func printStats(stats attendance.RosterStats) {
	fmt.Printf("roster: %d present, %d late, %d absent, %d pending (of %d)\n",
		stats.Present, stats.Late, stats.Absent, stats.Pending, stats.Total)
}

func (cli *commandLine) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cli.conf.API.Timeout)
}
