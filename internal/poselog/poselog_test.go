package poselog

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavewatch-data/maneuver.report/internal/pose"
)

func sampleJoints(kneeY float64) []pose.Joint {
	return []pose.Joint{
		{Name: pose.LeftHip, X: 45, Y: 60, Confidence: 0.9},
		{Name: pose.RightHip, X: 55, Y: 60, Confidence: 0.9},
		{Name: pose.LeftKnee, X: 45, Y: kneeY, Confidence: 0.8},
		{Name: pose.RightKnee, X: 55, Y: kneeY, Confidence: 0.8},
	}
}

func TestNewLog(t *testing.T) {
	t.Parallel()
	l := NewLog("session-042.mp4", 30)

	assert.Equal(t, Version, l.Version)
	assert.True(t, strings.HasPrefix(l.Session.SessionID, "ses_"))
	assert.Equal(t, "session-042.mp4", l.Session.Source)
	assert.Equal(t, 30.0, l.Session.FPS)
	assert.NotZero(t, l.Session.RecordedAtNs)
	assert.Empty(t, l.Frames)
}

func TestLogAppendAssignsIndicesAndTimestamps(t *testing.T) {
	t.Parallel()
	l := NewLog("clip.mp4", 25)

	l.Append(sampleJoints(75))
	l.Append(sampleJoints(76))
	l.Append(sampleJoints(77))

	require.Len(t, l.Frames, 3)
	assert.Equal(t, 0, l.Frames[0].Index)
	assert.Equal(t, 2, l.Frames[2].Index)
	assert.Equal(t, int64(0), l.Frames[0].TimestampMs)
	assert.Equal(t, int64(40), l.Frames[1].TimestampMs)
	assert.Equal(t, int64(80), l.Frames[2].TimestampMs)
	assert.NoError(t, l.Validate())
}

func TestFramePoseConversion(t *testing.T) {
	t.Parallel()
	f := Frame{Joints: sampleJoints(75)}

	fp := f.Pose()
	require.True(t, fp.Has(pose.LeftKnee))
	j, ok := fp.Get(pose.RightHip)
	require.True(t, ok)
	assert.Equal(t, 55.0, j.X)

	// Later duplicates replace earlier ones.
	f.Joints = append(f.Joints, pose.Joint{Name: pose.LeftHip, X: 99, Y: 1, Confidence: 0.5})
	assert.Equal(t, 99.0, f.Pose()[pose.LeftHip].X)
}

func TestValidateRejectsOutOfOrderFrames(t *testing.T) {
	t.Parallel()
	l := NewLog("clip.mp4", 30)
	l.Frames = []Frame{{Index: 0}, {Index: 2}, {Index: 1}}

	err := l.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of order")
}

func TestValidateRejectsMissingMetadata(t *testing.T) {
	t.Parallel()

	l := &Log{Session: Session{SessionID: "ses_x"}}
	assert.ErrorContains(t, l.Validate(), "version")

	l = &Log{Version: Version}
	assert.ErrorContains(t, l.Validate(), "session_id")
}

func TestReadWriteRoundTrip(t *testing.T) {
	t.Parallel()
	l := NewLog("clip.mp4", 30)
	l.Session.Notes = "north peak, chest high"
	for i := 0; i < 5; i++ {
		l.Append(sampleJoints(float64(75 + i)))
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, l))

	decoded, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, l.Session, decoded.Session)
	assert.Equal(t, l.Frames, decoded.Frames)
}

func TestWriteRejectsInvalidLog(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := Write(&buf, &Log{})
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestReadRejectsMalformedJSON(t *testing.T) {
	t.Parallel()
	_, err := Read(strings.NewReader(`{"version": "1.0", "frames": [`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode pose log")
}

func TestReadWriteFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "rides", "session-042"+FileExtension)

	l := NewLog("session-042.mp4", 30)
	l.Append(sampleJoints(75))
	require.NoError(t, WriteFile(path, l))

	decoded, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, l.Session.SessionID, decoded.Session.SessionID)
	require.Len(t, decoded.Frames, 1)
	assert.Equal(t, l.Frames[0].Joints, decoded.Frames[0].Joints)
}

func TestReadFileRejectsWrongExtension(t *testing.T) {
	t.Parallel()
	_, err := ReadFile(filepath.Join(t.TempDir(), "session.mp4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be JSON")
}

func TestReadFileMissing(t *testing.T) {
	t.Parallel()
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.poselog.json"))
	assert.Error(t, err)
}
