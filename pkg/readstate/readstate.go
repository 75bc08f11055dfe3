// Package readstate, sınırsız ve monoton artan item id dizisi için
// okundu/okunmadı bilgisini kompakt biçimde tutar.
//
// Temsil üç parçadan oluşur:
//   - Threshold: id < Threshold olan her item varsayılan olarak okunmuştur,
//     id >= Threshold olan her item varsayılan olarak okunmamıştır.
//   - Read: Threshold ve üstünde olup açıkça okundu işaretlenen id'ler.
//   - Unread: Threshold altında olup açıkça okunmadı işaretlenen id'ler.
//
// Mark* fonksiyonları bu ayrımı geçici olarak bozabilir; Compact her zaman
// geri kurar ve aynı boolean fonksiyonu en az istisna ile kodlayan
// Threshold değerini seçer.
//
// Paket hiçbir proje içi pakete bağımlı değildir (leaf dependency).
// Backing store'a sadece Load/Persist/Reset dokunur (bkz. store.go).
package readstate

import (
	"maps"
	"slices"
)

// IDSet, item id'lerinden oluşan sırasız küme.
type IDSet map[int64]struct{}

// NewIDSet, verilen id'lerle yeni bir küme oluşturur.
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has, id kümede mi?
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Add, id'yi kümeye ekler.
func (s IDSet) Add(id int64) { s[id] = struct{}{} }

// Remove, id'yi kümeden çıkarır. Yoksa no-op.
func (s IDSet) Remove(id int64) { delete(s, id) }

// Sorted, id'leri artan sırada döner. Boş küme için boş (nil değil) slice döner.
func (s IDSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clone, kümenin bağımsız bir kopyasını döner.
func (s IDSet) Clone() IDSet {
	if s == nil {
		return IDSet{}
	}
	return maps.Clone(s)
}

// State, bir kullanıcının bir dataset'teki okuma durumu.
//
// Value type olarak tasarlandı: metotlar pointer receiver ile yerinde
// değiştirir, Clone ile bağımsız kopya alınır.
type State struct {
	Threshold int64
	Read      IDSet
	Unread    IDSet
}

// New, "hiçbir şey okunmadı" durumunu döner: Threshold=1, iki küme boş.
func New() State {
	return State{
		Threshold: 1,
		Read:      IDSet{},
		Unread:    IDSet{},
	}
}

// MarkRead, id'yi okundu olarak işaretler. Threshold hareket etmez.
func (s *State) MarkRead(id int64) {
	s.ensureSets()
	s.Unread.Remove(id)
	s.Read.Add(id)
}

// MarkUnread, id'yi okunmadı olarak işaretler.
func (s *State) MarkUnread(id int64) {
	s.ensureSets()
	s.Read.Remove(id)
	s.Unread.Add(id)
}

// MarkAllReadUpTo, upto dahil her şeyi okundu yapar ve upto'dan büyük her
// şeyi okunmadı yapar. Önceden kaydedilmiş tüm istisnalar silinir.
//
// Threshold [1, math.MaxInt64] aralığına sıkıştırılır: upto < 0 hiçbir şey
// okunmadı demektir, upto = math.MaxInt64 temsil edilemez ve son id hariç
// her şeyi okundu yapar. API katmanı bu değeri zaten reddeder.
func (s *State) MarkAllReadUpTo(upto int64) {
	s.Read = IDSet{}
	s.Unread = IDSet{}
	s.Threshold = max(satInc(upto), 1)
}

// IsRead, id okunmuş mu?
//
//	id < Threshold  → Unread'de değilse okunmuş
//	id >= Threshold → sadece Read'deyse okunmuş
func (s *State) IsRead(id int64) bool {
	if id < s.Threshold {
		return !s.Unread.Has(id)
	}
	return s.Read.Has(id)
}

// IsUnread, IsRead'in tersi.
func (s *State) IsUnread(id int64) bool {
	return !s.IsRead(id)
}

// Exceptions, iki istisna kümesinin toplam büyüklüğü.
// Compact bu değeri minimize eder.
func (s *State) Exceptions() int {
	return len(s.Read) + len(s.Unread)
}

// Clone, State'in derin kopyasını döner.
func (s *State) Clone() State {
	return State{
		Threshold: s.Threshold,
		Read:      s.Read.Clone(),
		Unread:    s.Unread.Clone(),
	}
}

// Normalized, ayrım invariant'ı sağlanıyor mu kontrol eder:
// Threshold >= 1, Read sadece >= Threshold, Unread sadece < Threshold,
// ve tüm id'ler pozitif. Compact sonrası her zaman true döner.
func (s *State) Normalized() bool {
	if s.Threshold < 1 {
		return false
	}
	for id := range s.Read {
		if id < s.Threshold || id < 1 {
			return false
		}
	}
	for id := range s.Unread {
		if id >= s.Threshold || id < 1 {
			return false
		}
	}
	return true
}

func (s *State) ensureSets() {
	if s.Read == nil {
		s.Read = IDSet{}
	}
	if s.Unread == nil {
		s.Unread = IDSet{}
	}
}
