package readstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Backing store slot isimleri.
const (
	KeyThreshold = "threshold"
	KeyRead      = "readExceptions"
	KeyUnread    = "unreadExceptions"
	KeyDataset   = "datasetId"
)

// ErrMalformed, persist edilmiş bir slot parse edilemediğinde döner.
// Load bunu hata olarak yüzeye çıkarmaz; durumu sıfırlar.
var ErrMalformed = errors.New("malformed read state")

// Slots, State'in string slot karşılığı.
type Slots struct {
	Threshold string
	Read      string
	Unread    string
}

// Map, slot'ları key → value map'ine çevirir (SetMany için).
func (s Slots) Map() map[string]string {
	return map[string]string{
		KeyThreshold: s.Threshold,
		KeyRead:      s.Read,
		KeyUnread:    s.Unread,
	}
}

// Encode, State'i slot'lara serialize eder. Threshold 10'luk tabanda
// integer string, kümeler artan sıralı JSON array olarak yazılır.
// Sıra anlam taşımaz; sadece çıktıyı deterministik tutar.
func Encode(s State) (Slots, error) {
	read, err := json.Marshal(s.Read.Sorted())
	if err != nil {
		return Slots{}, fmt.Errorf("failed to encode read exceptions: %w", err)
	}
	unread, err := json.Marshal(s.Unread.Sorted())
	if err != nil {
		return Slots{}, fmt.Errorf("failed to encode unread exceptions: %w", err)
	}
	return Slots{
		Threshold: strconv.FormatInt(s.Threshold, 10),
		Read:      string(read),
		Unread:    string(unread),
	}, nil
}

// Decode, slot'lardan State oluşturur. Parse edilemeyen integer, array
// olmayan JSON, pozitif olmayan id veya 1'den küçük Threshold
// ErrMalformed ile reddedilir.
func Decode(slots Slots) (State, error) {
	threshold, err := strconv.ParseInt(strings.TrimSpace(slots.Threshold), 10, 64)
	if err != nil {
		return State{}, fmt.Errorf("%w: threshold %q", ErrMalformed, slots.Threshold)
	}
	if threshold < 1 {
		return State{}, fmt.Errorf("%w: threshold %d below 1", ErrMalformed, threshold)
	}

	read, err := decodeSet(KeyRead, slots.Read)
	if err != nil {
		return State{}, err
	}
	unread, err := decodeSet(KeyUnread, slots.Unread)
	if err != nil {
		return State{}, err
	}

	return State{Threshold: threshold, Read: read, Unread: unread}, nil
}

// decodeSet, JSON integer array'ini kümeye çevirir. Tekrar eden id'ler
// tek elemana iner.
func decodeSet(key, raw string) (IDSet, error) {
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	if ids == nil {
		// "null" geçerli JSON ama küme değil
		return nil, fmt.Errorf("%w: %s is not an array", ErrMalformed, key)
	}
	for _, id := range ids {
		if id < 1 {
			return nil, fmt.Errorf("%w: %s contains non-positive id %d", ErrMalformed, key, id)
		}
	}
	return NewIDSet(ids...), nil
}
