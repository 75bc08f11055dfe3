package readstate

import (
	"context"
	"errors"
	"fmt"
)

// Store, State'in persist edildiği string adresli key-value slot'ları.
//
// Get: key yoksa ("", false, nil) döner, yokluk hata değildir.
// Implementasyonlar: repository.Slots (SQLite, Redis, memory).
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// BatchStore, birden fazla slot'u tek seferde (atomik) yazabilen Store.
// Persist ve Reset, Store bunu sağlıyorsa kullanır.
type BatchStore interface {
	Store
	SetMany(ctx context.Context, values map[string]string) error
}

// ReinitReason, Load'ın durumu neden sıfırladığını belirtir.
type ReinitReason string

const (
	ReinitNone      ReinitReason = ""
	ReinitDataset   ReinitReason = "dataset"   // datasetId yok veya farklı
	ReinitMalformed ReinitReason = "malformed" // slot eksik veya parse edilemedi
)

// LoadResult, Load'ın ne yaptığını caller'a bildirir (loglama için).
type LoadResult struct {
	Reason ReinitReason
	// Cause, ReinitMalformed durumunda decode hatasını taşır.
	Cause error
}

// Reinitialized, Load yeni bir durum oluşturup yazdı mı?
func (r LoadResult) Reinitialized() bool {
	return r.Reason != ReinitNone
}

// Load, store'dan datasetID için State'i okur.
//
// Sıfırlama politikası:
//   - datasetId slot'u yoksa veya datasetID'den farklıysa → taze durum
//     (hiçbir şey okunmadı) yazılır, ReinitDataset döner.
//   - threshold/readExceptions/unreadExceptions eksik veya bozuksa →
//     aynı şekilde sıfırlanır, ReinitMalformed döner.
//
// Sadece store I/O hataları error olarak döner.
func Load(ctx context.Context, store Store, datasetID string) (State, LoadResult, error) {
	current, ok, err := store.Get(ctx, KeyDataset)
	if err != nil {
		return State{}, LoadResult{}, fmt.Errorf("failed to read dataset id: %w", err)
	}
	if !ok || current != datasetID {
		s, err := Reset(ctx, store, datasetID)
		if err != nil {
			return State{}, LoadResult{}, err
		}
		return s, LoadResult{Reason: ReinitDataset}, nil
	}

	s, err := readState(ctx, store)
	if err == nil {
		return s, LoadResult{}, nil
	}
	if !errors.Is(err, ErrMalformed) {
		return State{}, LoadResult{}, err
	}

	fresh, resetErr := Reset(ctx, store, datasetID)
	if resetErr != nil {
		return State{}, LoadResult{}, resetErr
	}
	return fresh, LoadResult{Reason: ReinitMalformed, Cause: err}, nil
}

// readState, slot'ları okuyup decode eder.
func readState(ctx context.Context, store Store) (State, error) {
	slots, err := readSlots(ctx, store)
	if err != nil {
		return State{}, err
	}
	return Decode(slots)
}

// Persist, State'i compact eder ve üç slot'u yazar. s yerinde değişir;
// dönüşten sonra yazılan temsil ile aynıdır.
func Persist(ctx context.Context, store Store, s *State) error {
	s.Compact()

	slots, err := Encode(*s)
	if err != nil {
		return err
	}
	if err := writeSlots(ctx, store, slots.Map()); err != nil {
		return fmt.Errorf("failed to persist read state: %w", err)
	}
	return nil
}

// Reset, datasetID için taze durumu koşulsuz yazar ve döner.
func Reset(ctx context.Context, store Store, datasetID string) (State, error) {
	s := New()
	slots, err := Encode(s)
	if err != nil {
		return State{}, err
	}

	values := slots.Map()
	values[KeyDataset] = datasetID
	if err := writeSlots(ctx, store, values); err != nil {
		return State{}, fmt.Errorf("failed to reset read state: %w", err)
	}
	return s, nil
}

// readSlots, üç State slot'unu okur. Eksik slot ErrMalformed sayılır.
func readSlots(ctx context.Context, store Store) (Slots, error) {
	var slots Slots
	targets := []struct {
		key string
		dst *string
	}{
		{KeyThreshold, &slots.Threshold},
		{KeyRead, &slots.Read},
		{KeyUnread, &slots.Unread},
	}
	for _, t := range targets {
		v, ok, err := store.Get(ctx, t.key)
		if err != nil {
			return Slots{}, fmt.Errorf("failed to read %s: %w", t.key, err)
		}
		if !ok {
			return Slots{}, fmt.Errorf("%w: %s missing", ErrMalformed, t.key)
		}
		*t.dst = v
	}
	return slots, nil
}

// writeSlots, BatchStore varsa tek çağrıda, yoksa slot slot yazar.
// datasetId en son yazılır: yarım kalan bir yazımda sonraki Load
// sıfırlamaya düşer.
func writeSlots(ctx context.Context, store Store, values map[string]string) error {
	if bs, ok := store.(BatchStore); ok {
		return bs.SetMany(ctx, values)
	}

	for _, key := range []string{KeyThreshold, KeyRead, KeyUnread, KeyDataset} {
		v, ok := values[key]
		if !ok {
			continue
		}
		if err := store.Set(ctx, key, v); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	return nil
}
