package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignedID(t *testing.T) {
	{ // packed encoding round trip, both polarities
		for _, id := range []int{0, 1, 7, 1023} {
			plus := SignedID{ID: id}
			minus := SignedID{ID: id, Flipped: true}
			assert.Equal(t, id, EncodeSigned(plus))
			assert.Equal(t, -1-id, EncodeSigned(minus))
			assert.Equal(t, plus, DecodeSigned(EncodeSigned(plus)))
			assert.Equal(t, minus, DecodeSigned(EncodeSigned(minus)))
		}
		// id 0 flipped packs to -1, distinct from id 0 unflipped
		assert.Equal(t, -1, EncodeSigned(SignedID{ID: 0, Flipped: true}))
		assert.Equal(t, SignedID{ID: 0, Flipped: true}, DecodeSigned(-1))
	}
	{ // sign factor
		assert.Equal(t, 1., SignedID{ID: 3}.Sign())
		assert.Equal(t, -1., SignedID{ID: 3, Flipped: true}.Sign())
	}
}

func TestFace(t *testing.T) {
	{ // boundary marker
		bdr := Face{
			Side1: FaceSide{Elem: 4, FaceID: 2},
			Side2: FaceSide{Elem: SentinelNoNeighbor},
		}
		assert.True(t, bdr.IsBoundary())
		interior := Face{
			Side1: FaceSide{Elem: 4, FaceID: 2},
			Side2: FaceSide{Elem: 5, FaceID: 0, Orientation: 1},
		}
		assert.False(t, interior.IsBoundary())
	}
	{ // orientation codes outside the table are fatal
		assert.NotPanics(t, func() { CheckOrientation(2, 0) })
		assert.NotPanics(t, func() { CheckOrientation(2, 1) })
		assert.NotPanics(t, func() { CheckOrientation(3, 7) })
		assert.Panics(t, func() { CheckOrientation(2, 2) })
		assert.Panics(t, func() { CheckOrientation(3, 8) })
		assert.Panics(t, func() { CheckOrientation(3, -1) })
	}
}
