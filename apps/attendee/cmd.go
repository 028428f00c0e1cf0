package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/geo"
	"github.com/trezcool/mahudhurio/core/location"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/services/location"
	"github.com/trezcool/mahudhurio/storage/restapi"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	nowFunc          = time.Now         // mockable

	errHelp          = errors.New("help provided")
	errEventNotFound = errors.New("event not found")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	sess   *session.Session
	api    *restapi.Client
	svc    *attendance.Service
	device location.Device
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  login -email EMAIL                          - log in (password prompted)")
	fmt.Println("  logout                                      - log out and forget the session")
	fmt.Println("  whoami                                      - show the logged in account")
	fmt.Println("  events                                      - list my events and attendance statuses")
	fmt.Println("  mark -event ID -code CODE [-lat F -lng F]   - mark attendance for an event")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	loginEmail := loginCmd.String("email", "", "The account's email. The password will be prompted next.")

	markCmd := flag.NewFlagSet("mark", flag.ExitOnError)
	markEvent := markCmd.String("event", "", "The event id to mark attendance for.")
	markCode := markCmd.String("code", "", "The attendance code displayed by the organizer.")
	markLat := markCmd.Float64("lat", 0, "Manual position latitude (with -lng); overrides the device position.")
	markLng := markCmd.Float64("lng", 0, "Manual position longitude (with -lat); overrides the device position.")

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
	case "logout":
		cli.sess.Clear()
		fmt.Println("Logged out.")
		return nil
	case "whoami":
		return cli.whoami()
	case "events":
		return cli.listEvents()
	case "mark":
		if err := markCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *markEvent == "" || *markCode == "" {
			markCmd.Usage()
			return errHelp
		}
		var manual *geo.Point
		if isFlagSet(markCmd, "lat") || isFlagSet(markCmd, "lng") {
			manual = &geo.Point{Lat: *markLat, Lng: *markLng}
		}
		return cli.mark(*markEvent, *markCode, manual)
	default:
		cli.printUsage()
		return errHelp
	}
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	var set bool
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
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

func (cli *commandLine) whoami() error {
	if !cli.sess.LoggedIn() {
		return session.ErrNoSession
	}
	ctx, cancel := cli.ctx()
	defer cancel()

	acct, err := cli.api.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s <%s> (%s)\n", acct.FirstName, acct.LastName, acct.Email, acct.Role)
	return nil
}

func (cli *commandLine) listEvents() error {
	if !cli.sess.LoggedIn() {
		return session.ErrNoSession
	}
	ctx, cancel := cli.ctx()
	defer cancel()

	events, err := cli.svc.Events(ctx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No events.")
		return nil
	}

	now := nowFunc().UTC()
	for _, evt := range events {
		active := " "
		if evt.IsActive(now) {
			active = "*"
		}
		venue := "-"
		if evt.Venue != nil {
			venue = evt.Venue.Name
		}
		fmt.Printf("%s %-12s  %-10s  %-30s  %s\n", active, evt.ID, evt.MyStatus, evt.Title, venue)
	}
	return nil
}

// mark runs the full attendee flow: find the event, pre-check proximity and
// submit the code for server verification.
func (cli *commandLine) mark(eventID, code string, manual *geo.Point) error {
	if !cli.sess.LoggedIn() {
		return session.ErrNoSession
	}
	if cli.svc.IsMarkedLocally(eventID) {
		fmt.Println("Attendance already marked for this event.")
		return nil
	}

	ctx, cancel := cli.ctx()
	defer cancel()

	events, err := cli.svc.Events(ctx)
	if err != nil {
		return err
	}
	var evt *attendance.Event
	for i := range events {
		if events[i].ID == eventID {
			evt = &events[i]
			break
		}
	}
	if evt == nil {
		return errEventNotFound
	}

	device := cli.device
	if manual != nil {
		if device, err = locsvc.NewStaticDevice(*manual); err != nil {
			return err
		}
	}

	fmt.Println("Checking your location...")
	cls := attendance.NewClassifier(location.NewService(device, cli.conf), cli.logger).Classify(ctx, evt.Venue)
	fmt.Println(stateMessage(cls))
	if cls.State == attendance.StateError {
		return cls.Err
	}

	if _, err = cli.svc.Mark(ctx, eventID, code, cls); err != nil {
		return err
	}
	fmt.Println("Attendance marked. You are recorded as present.")
	return nil
}

func stateMessage(cls attendance.Classification) string {
	switch cls.State {
	case attendance.StateInRange:
		return fmt.Sprintf("You are at the venue (%.0fm away).", cls.Distance)
	case attendance.StateOutOfRange:
		return fmt.Sprintf("You are %.0fm from the venue, outside its allowed area.", cls.Distance)
	case attendance.StateLocationDetected:
		return "Location detected. The venue has no registered area; the server will verify."
	case attendance.StateNoVenueData:
		return "This event has no venue location; proceeding without a proximity check."
	case attendance.StateError:
		if cls.Err != nil {
			return cls.Err.Error()
		}
		return "Location check failed."
	}
	return string(cls.State)
}

func (cli *commandLine) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cli.conf.API.Timeout)
}
