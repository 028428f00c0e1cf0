package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/services/location"
	"github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/storage/localstore"
	"github.com/trezcool/mahudhurio/storage/restapi"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

func main() {
	std := log.New(os.Stdout, "ATTENDEE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// set up validators
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	// set up local state & session
	store := localstore.New(conf.StateDir)
	sess := session.New(store, logger)
	sess.Hydrate()

	// set up services
	api := restapi.NewClient(conf, sess.Token, sess.Clear)
	svc := attendance.NewService(api, localstore.NewMarkedSet(store), validate, logger, conf)

	// start CLI
	cli := commandLine{
		conf:   conf,
		logger: logger,
		sess:   sess,
		api:    api,
		svc:    svc,
		device: locsvc.DeviceFromConfig(conf),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			if vErr, ok := errors.Cause(err).(*core.ValidationError); ok {
				for _, fld := range vErr.Fields {
					fmt.Printf("%s: %s\n", fld.Field, fld.Error)
				}
			} else {
				logger.Error(err.Error(), err)
			}
			os.Exit(1)
		}
	}
}
