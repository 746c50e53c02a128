// Package positionid provides compact binary keys and gnubg-compatible
// base64 position IDs for backgammon checker positions. Keys are used for
// fast equality and map lookups; the 14-character IDs are the interchange
// format understood by GNU Backgammon and related tools.
package positionid

import "errors"

// IDLength is the length of a base64 position ID string.
const IDLength = 14

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Board holds both players' checkers, each side from its own perspective:
// slots 0-23 are the points, slot 24 the bar. Borne-off checkers are
// implied (15 minus the slot total) and do not participate in the key.
type Board [2][25]uint8

// Key is a compact binary position representation: 4 bits per slot packed
// into 7 words.
type Key struct {
	Data [7]uint32
}

// oldKey is the legacy 80-bit run-length key that the base64 ID string is
// built from.
type oldKey struct {
	Data [10]uint8
}

// MakeKey packs a board into a Key.
func MakeKey(board Board) Key {
	var key Key

	for i, j := 0, 0; i < 3; i, j = i+1, j+8 {
		key.Data[i] = uint32(board[1][j]) + (uint32(board[1][j+1]) << 4) +
			(uint32(board[1][j+2]) << 8) + (uint32(board[1][j+3]) << 12) +
			(uint32(board[1][j+4]) << 16) + (uint32(board[1][j+5]) << 20) +
			(uint32(board[1][j+6]) << 24) + (uint32(board[1][j+7]) << 28)

		key.Data[i+3] = uint32(board[0][j]) + (uint32(board[0][j+1]) << 4) +
			(uint32(board[0][j+2]) << 8) + (uint32(board[0][j+3]) << 12) +
			(uint32(board[0][j+4]) << 16) + (uint32(board[0][j+5]) << 20) +
			(uint32(board[0][j+6]) << 24) + (uint32(board[0][j+7]) << 28)
	}
	key.Data[6] = uint32(board[0][24]) + (uint32(board[1][24]) << 4)

	return key
}

// BoardFromKey unpacks a Key back into a board.
func BoardFromKey(key Key) Board {
	var board Board

	for i, j := 0, 0; i < 3; i, j = i+1, j+8 {
		for k := 0; k < 8; k++ {
			board[1][j+k] = uint8((key.Data[i] >> (4 * k)) & 0x0f)
			board[0][j+k] = uint8((key.Data[i+3] >> (4 * k)) & 0x0f)
		}
	}
	board[0][24] = uint8(key.Data[6] & 0x0f)
	board[1][24] = uint8((key.Data[6] >> 4) & 0x0f)

	return board
}

// addBits sets nBits consecutive one-bits in the old key starting at bitPos.
func addBits(key *oldKey, bitPos, nBits uint32) {
	k := bitPos / 8
	r := bitPos & 0x7
	b := ((uint32(1) << nBits) - 1) << r

	key.Data[k] |= uint8(b)

	if k < 8 {
		key.Data[k+1] |= uint8(b >> 8)
		key.Data[k+2] |= uint8(b >> 16)
	} else if k == 8 {
		key.Data[k+1] |= uint8(b >> 8)
	}
}

// makeOldKey builds the run-length key: each slot contributes its checker
// count as one-bits followed by a zero separator.
func makeOldKey(board Board) oldKey {
	var key oldKey
	var bitPos uint32

	for i := 0; i < 2; i++ {
		for j := 0; j < 25; j++ {
			nc := uint32(board[i][j])
			if nc > 0 {
				addBits(&key, bitPos, nc)
				bitPos += nc + 1
			} else {
				bitPos++
			}
		}
	}

	return key
}

// boardFromOldKey reverses makeOldKey.
func boardFromOldKey(key oldKey) Board {
	var board Board
	i, j := 0, 0

	for a := 0; a < 10; a++ {
		cur := key.Data[a]

		for k := 0; k < 8; k++ {
			if cur&0x1 != 0 {
				if i >= 2 || j >= 25 {
					return board
				}
				board[i][j]++
			} else {
				j++
				if j == 25 {
					i++
					j = 0
				}
			}
			cur >>= 1
		}
	}

	return board
}

// PositionID returns the 14-character base64 position ID for a board.
func PositionID(board Board) string {
	key := makeOldKey(board)
	result := make([]byte, IDLength)
	puch := key.Data[:]

	for i := 0; i < 3; i++ {
		result[i*4] = base64Chars[puch[0]>>2]
		result[i*4+1] = base64Chars[((puch[0]&0x03)<<4)|(puch[1]>>4)]
		result[i*4+2] = base64Chars[((puch[1]&0x0F)<<2)|(puch[2]>>6)]
		result[i*4+3] = base64Chars[puch[2]&0x3F]
		puch = puch[3:]
	}

	result[12] = base64Chars[puch[0]>>2]
	result[13] = base64Chars[(puch[0]&0x03)<<4]

	return string(result)
}

// base64Decode decodes one position-ID character, returning 255 for
// anything outside the alphabet.
func base64Decode(ch byte) uint8 {
	switch {
	case ch >= 'A' && ch <= 'Z':
		return ch - 'A'
	case ch >= 'a' && ch <= 'z':
		return ch - 'a' + 26
	case ch >= '0' && ch <= '9':
		return ch - '0' + 52
	case ch == '+':
		return 62
	case ch == '/':
		return 63
	}
	return 255
}

// ErrInvalidPositionID is returned when a position ID cannot be decoded
// into a legal board.
var ErrInvalidPositionID = errors.New("invalid position ID")

// BoardFromPositionID decodes a base64 position ID into a board.
func BoardFromPositionID(posID string) (Board, error) {
	var key oldKey
	var board Board

	if len(posID) < IDLength {
		return board, ErrInvalidPositionID
	}

	ach := make([]uint8, IDLength)
	for i := 0; i < IDLength; i++ {
		ach[i] = base64Decode(posID[i])
		if ach[i] == 255 {
			return board, ErrInvalidPositionID
		}
	}

	pch := ach
	idx := 0
	for i := 0; i < 3; i++ {
		key.Data[idx] = (pch[0] << 2) | (pch[1] >> 4)
		key.Data[idx+1] = (pch[1] << 4) | (pch[2] >> 2)
		key.Data[idx+2] = (pch[2] << 6) | pch[3]
		idx += 3
		pch = pch[4:]
	}
	key.Data[9] = (pch[0] << 2) | (pch[1] >> 4)

	board = boardFromOldKey(key)

	if !CheckPosition(board) {
		return board, ErrInvalidPositionID
	}

	return board, nil
}

// CheckPosition validates a decoded board: neither side may exceed 15
// checkers, no physical point may be held by both sides, and both sides
// cannot be stuck on the bar behind two closed boards.
func CheckPosition(board Board) bool {
	var ac [2]uint32

	for i := 0; i < 25; i++ {
		ac[0] += uint32(board[0][i])
		ac[1] += uint32(board[1][i])
		if ac[0] > 15 || ac[1] > 15 {
			return false
		}
	}

	for i := 0; i < 24; i++ {
		if board[0][i] > 0 && board[1][23-i] > 0 {
			return false
		}
	}

	for i := 0; i < 6; i++ {
		if board[0][i] < 2 || board[1][i] < 2 {
			return true
		}
	}

	return board[0][24] == 0 || board[1][24] == 0
}

// EqualKeys reports whether two keys are identical.
func EqualKeys(k1, k2 Key) bool {
	return k1 == k2
}

// SwapSides exchanges the two players' checkers, flipping the perspective.
func SwapSides(board Board) Board {
	var result Board
	for i := 0; i < 25; i++ {
		result[0][i], result[1][i] = board[1][i], board[0][i]
	}
	return result
}
