// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"bytes"
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/kore/core"
)

func TestNewLoggerJSON(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	logger, err := core.NewLogger(core.LogConfiguration{Level: "debug", Format: "json"}, &buf)
	c.Assert(err, qt.IsNil)
	c.Assert(logger.GetLevel(), qt.Equals, log.DebugLevel)

	logger.WithField("kind", "mesh").Debug("load finished")
	var entry map[string]interface{}
	c.Assert(json.Unmarshal(buf.Bytes(), &entry), qt.IsNil)
	c.Assert(entry["kind"], qt.Equals, "mesh")
	c.Assert(entry["msg"], qt.Equals, "load finished")
}

func TestNewLoggerLevelFilters(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	logger, err := core.NewLogger(core.LogConfiguration{Level: "warn", Format: "text"}, &buf)
	c.Assert(err, qt.IsNil)
	logger.Info("hidden")
	c.Assert(buf.Len(), qt.Equals, 0)
	logger.Warn("shown")
	c.Assert(buf.String(), qt.Contains, "shown")
}

func TestNewLoggerInvalid(t *testing.T) {
	c := qt.New(t)
	_, err := core.NewLogger(core.LogConfiguration{Level: "loud"}, &bytes.Buffer{})
	c.Assert(err, qt.ErrorMatches, `not a valid logrus Level: "loud"`)
	_, err = core.NewLogger(core.LogConfiguration{Level: "info", Format: "xml"}, &bytes.Buffer{})
	c.Assert(err, qt.ErrorMatches, `unknown log format "xml"`)
}
