package wallet

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"strings"
	"testing"
)

func TestTransferMessageCell(t *testing.T) {
	body, err := TextComment("hello")
	require.NoError(t, err)
	c, err := Transfer{
		Destination: extensionB,
		Amount:      tlb.Grams(500_000_000),
		Bounce:      true,
		Body:        body,
	}.MessageCell()
	require.NoError(t, err)

	var msg tlb.Message
	require.NoError(t, tlb.Unmarshal(c, &msg))
	require.Equal(t, "IntMsgInfo", string(msg.Info.SumType))
	info := msg.Info.IntMsgInfo
	assert.True(t, info.Bounce)
	assert.Equal(t, tlb.Grams(500_000_000), info.Value.Grams)
	dest, err := ton.AccountIDFromTlb(info.Dest)
	require.NoError(t, err)
	require.NotNil(t, dest)
	assert.Equal(t, extensionB, *dest)
	assert.False(t, msg.Init.Exists)
}

func TestTextComment(t *testing.T) {
	c, err := TextComment("hello")
	require.NoError(t, err)
	op, err := c.ReadUint(32)
	require.NoError(t, err)
	assert.Zero(t, op)
	text, err := c.ReadBytes(5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(text))

	long := strings.Repeat("a", 300)
	c, err = TextComment(long)
	require.NoError(t, err)
	var collected []byte
	_, err = c.ReadUint(32)
	require.NoError(t, err)
	for cur := c; ; {
		chunk, err := cur.ReadBytes(cur.BitsAvailableForRead() / 8)
		require.NoError(t, err)
		collected = append(collected, chunk...)
		if cur.RefsAvailableForRead() == 0 {
			break
		}
		cur, err = cur.NextRef()
		require.NoError(t, err)
	}
	assert.Equal(t, long, string(collected))
}

func TestTransferWithStateInit(t *testing.T) {
	c, err := Transfer{
		Destination: extensionA,
		Amount:      tlb.Grams(1),
		Code:        testCell(t, 1),
		Data:        testCell(t, 2),
	}.MessageCell()
	require.NoError(t, err)
	var msg tlb.Message
	require.NoError(t, tlb.Unmarshal(c, &msg))
	assert.True(t, msg.Init.Exists)

	_, err = Transfer{Destination: extensionA, Code: testCell(t, 1)}.MessageCell()
	require.ErrorIs(t, err, ErrInvalidArgument)
}
