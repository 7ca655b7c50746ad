package main

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/dasmlab/lingosense/pkg/pipeline"
	"github.com/dasmlab/lingosense/pkg/profile"
	"github.com/dasmlab/lingosense/pkg/translate"
)

type closeTracker struct {
	translate.Translator
	closed int
}

func (c *closeTracker) Close() error {
	c.closed++
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNewPipelineClosesTranslatorOnError(t *testing.T) {
	t.Parallel()

	// No english profile, so pipeline.New rejects the registry.
	reg, err := profile.NewRegistry(profile.MustNew(profile.Config{Name: "hindi", Code: "hi", ModelTag: "hin_Deva"}))
	require.NoError(t, err)

	tr := &closeTracker{Translator: translate.NewStaticTranslator(nil, false)}
	p, err := newPipeline(pipeline.Config{Registry: reg, Translator: tr, Logger: quietLogger()})
	require.Error(t, err)
	require.Nil(t, p)
	require.Equal(t, 1, tr.closed)
}

func TestNewPipelineKeepsTranslatorOpen(t *testing.T) {
	t.Parallel()

	tr := &closeTracker{Translator: translate.NewStaticTranslator(nil, false)}
	p, err := newPipeline(pipeline.Config{Translator: tr, Logger: quietLogger()})
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Zero(t, tr.closed)
}

func TestLoadProfilesDefault(t *testing.T) {
	t.Parallel()

	reg, err := loadProfiles("")
	require.NoError(t, err)
	_, err = reg.Lookup("english")
	require.NoError(t, err)
}
