/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LoggerTestSuite struct {
	suite.Suite
	saved Level
}

func (s *LoggerTestSuite) SetupTest() {
	s.saved = CurrentLevel()
}

func (s *LoggerTestSuite) TearDownTest() {
	SetLevel(s.saved)
}

func (s *LoggerTestSuite) TestLogColor() {
	SetLevel(LevelTrace)
	l := New("launcher", os.Stdout)

	l.Tracef("this is tracef %s", "hello world")
	l.Infof("this is infof %s", "hello world")
	l.Info("this is info")
	l.Debugf("this is debugf %s", "hello world")
	l.Warnf("this is warnf %s", "hello world")
	l.Errorf("this is errorf %s", "hello world")
	l.Error("this is error")
}

func (s *LoggerTestSuite) TestLevelFilter() {
	var buf bytes.Buffer
	l := New("launcher", &buf)
	SetLevel(LevelWarn)

	l.Infof("hidden %d", 1)
	l.Debugf("hidden %d", 2)
	l.Warnf("shown %d", 3)
	l.Errorf("shown %d", 4)

	out := buf.String()
	s.NotContains(out, "hidden")
	s.Contains(out, "Warn ")
	s.Contains(out, "shown 3")
	s.Contains(out, "Error ")
	s.Contains(out, "shown 4")
	s.Equal(2, strings.Count(out, "\n"))
}

func (s *LoggerTestSuite) TestPrefixHasCallerAndName() {
	var buf bytes.Buffer
	l := New("launcher", &buf)
	SetLevel(LevelInfo)

	l.Info("enabling")

	out := buf.String()
	s.Contains(out, "logger_test.go:")
	s.Contains(out, " launcher enabling")
	s.NotContains(out, reset, "file output must not carry colour codes")
}

func (s *LoggerTestSuite) TestNoPrint() {
	var buf bytes.Buffer
	l := New("", &buf)
	SetLevel(LevelNoPrint)
	l.Errorf("nothing")
	s.Empty(buf.String())
}

func (s *LoggerTestSuite) TestNilLoggerIsSafe() {
	var l *Logger
	s.NotPanics(func() { l.Errorf("x") })
}

func (s *LoggerTestSuite) TestParseLevel() {
	for in, want := range map[string]Level{
		"0":     LevelTrace,
		"2":     LevelInfo,
		"debug": LevelDebug,
		"WARN":  LevelWarn,
		"error": LevelError,
		"off":   LevelNoPrint,
	} {
		got, err := ParseLevel(in)
		s.Require().NoError(err, in)
		s.Equal(want, got, in)
	}
	_, err := ParseLevel("9")
	s.Error(err)
	_, err = ParseLevel("loud")
	s.Error(err)
}

func (s *LoggerTestSuite) TestOpenFileCreatesDir() {
	path := filepath.Join(s.T().TempDir(), "Logs", "launcher.log")
	f, err := OpenFile(path)
	s.Require().NoError(err)
	s.Require().NoError(f.Close())
	s.FileExists(path)
}

func TestLoggerTestSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}
