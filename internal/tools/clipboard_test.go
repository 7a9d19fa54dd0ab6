package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipboardManagementWriteThenRead(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.clipboardManagement(context.Background(), mustJSON(t, clipboardArgs{Action: "write", Data: "hello"}))
	require.NoError(t, err)

	out, err := f.svc.clipboardManagement(context.Background(), mustJSON(t, clipboardArgs{Action: "read"}))
	require.NoError(t, err)
	res := out.(clipboardResult)
	assert.True(t, res.OK)
	assert.True(t, res.Present)
	assert.Equal(t, "hello", res.Data)
}

func TestClipboardManagementReadEmptyReportsAbsent(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.clipboardManagement(context.Background(), mustJSON(t, clipboardArgs{Action: "read"}))
	require.NoError(t, err)
	res := out.(clipboardResult)
	assert.True(t, res.OK)
	assert.False(t, res.Present)
}

func TestClipboardManagementClear(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.clipboardManagement(context.Background(), mustJSON(t, clipboardArgs{Action: "write", Data: "x"}))
	require.NoError(t, err)
	_, err = f.svc.clipboardManagement(context.Background(), mustJSON(t, clipboardArgs{Action: "clear"}))
	require.NoError(t, err)

	out, err := f.svc.clipboardManagement(context.Background(), mustJSON(t, clipboardArgs{Action: "read"}))
	require.NoError(t, err)
	assert.False(t, out.(clipboardResult).Present)
}
