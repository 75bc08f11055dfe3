package readstate

import (
	"math"
	"slices"
)

// Compact, State'i yerinde normalize eder.
//
// Adımlar:
//  1. Threshold'un zaten ima ettiği istisnaları at (Read'de < Threshold,
//     Unread'de >= Threshold olanlar).
//  2. İki küme de boşsa dur, daha kompakt olamaz.
//  3. Arama penceresini hesapla: [max(1, min-1), max+1]. min/max tüm
//     istisnalar ve Threshold üzerinden alınır.
//  4. Penceredeki her Threshold için istisna sayısını bul; en küçüğü seç.
//     Eşitlikte büyük Threshold kazanır.
//  5. Seçilen Threshold için kümeleri yeniden kur.
//
// Pencere id'ler arasındaki boşluklar kadar geniş olabilir, bu yüzden her
// Threshold tek tek denenmez. İstisna olmayan bir id'yi geçmek maliyeti
// Threshold'un altında hep -1, üstünde hep +1 değiştirir; maliyet
// boşluklarda kesin monotondur. Minimum ancak bir boşluğun ucunda olabilir:
// low, high, Threshold, her istisna id'si ve id+1. Sadece bunlar
// değerlendirilir, iş istisna sayısıyla orantılıdır.
//
// Kodlanan boolean fonksiyon değişmez ve işlem idempotenttir.
func (s *State) Compact() {
	s.ensureSets()
	// Pozitif id'ler için Threshold 0 ile 1 aynı fonksiyonu kodlar.
	s.Threshold = max(s.Threshold, 1)
	s.dropImplied()

	if s.Exceptions() == 0 {
		return
	}

	read, unread := s.Read.Sorted(), s.Unread.Sorted()
	low, high := s.window()

	candidates := make([]int64, 0, 2*(len(read)+len(unread))+3)
	candidates = append(candidates, low, high, s.Threshold)
	for _, ids := range [][]int64{read, unread} {
		for _, id := range ids {
			candidates = append(candidates, id, satInc(id))
		}
	}
	slices.Sort(candidates)
	candidates = slices.Compact(candidates)

	best, bestCost := s.Threshold, int64(-1)
	for _, t := range candidates {
		if t < low || t > high {
			continue
		}
		// Sıralı gezildiği için <= eşitlikte büyük Threshold'u seçer.
		if c := cost(s.Threshold, read, unread, t); bestCost < 0 || c <= bestCost {
			best, bestCost = t, c
		}
	}

	s.rebase(best)
}

// Compacted, s'yi değiştirmeden normalize edilmiş bir kopya döner.
func (s *State) Compacted() State {
	c := s.Clone()
	c.Compact()
	return c
}

// dropImplied, Threshold tarafından zaten ima edilen istisnaları siler.
// Pozitif olmayan id'ler de atılır.
func (s *State) dropImplied() {
	for id := range s.Read {
		if id < s.Threshold || id < 1 {
			delete(s.Read, id)
		}
	}
	for id := range s.Unread {
		if id >= s.Threshold || id < 1 {
			delete(s.Unread, id)
		}
	}
}

// window, aday Threshold aralığını [low, high] olarak döner.
// high int64 sınırında doyar.
func (s *State) window() (low, high int64) {
	low, high = s.Threshold, s.Threshold
	for _, set := range []IDSet{s.Read, s.Unread} {
		for id := range set {
			low = min(low, id)
			high = max(high, id)
		}
	}
	return max(low-1, 1), satInc(high)
}

// cost, normalize edilmiş (T, read, unread) durumunun fonksiyonunu
// Threshold t ile kodlamak için gereken istisna sayısı. read ve unread
// artan sıralıdır; read'in hepsi >= T, unread'in hepsi < T.
//
//	t >= T: [T, t) aralığında Read'de olmayanlar okunmamış ve t'nin altında
//	        kalır, Unread'in hepsi de öyle. Read'in t ve üstü olduğu gibi kalır.
//	t <  T: [t, T) aralığında Unread'de olmayanlar okunmuş ve t'nin
//	        üstünde kalır, Read'in hepsi de öyle. Unread'in t altı kalır.
func cost(T int64, read, unread []int64, t int64) int64 {
	if t >= T {
		readBelow := int64(countLess(read, t))
		return int64(len(unread)) + (t - T - readBelow) + (int64(len(read)) - readBelow)
	}
	unreadBelow := int64(countLess(unread, t))
	unreadAbove := int64(len(unread)) - unreadBelow
	return unreadBelow + int64(len(read)) + (T - t - unreadAbove)
}

// rebase, aynı fonksiyonu koruyarak Threshold'u t'ye taşır. Sadece
// Compact'ın seçtiği t ile çağrılır; dolaşılan aralık yeni istisna
// sayısı ile eskilerinin toplamıyla sınırlıdır.
func (s *State) rebase(t int64) {
	switch {
	case t > s.Threshold:
		for id := s.Threshold; id < t; id++ {
			if s.Read.Has(id) {
				s.Read.Remove(id)
			} else {
				s.Unread.Add(id)
			}
		}
	case t < s.Threshold:
		for id := s.Threshold - 1; id >= t; id-- {
			if s.Unread.Has(id) {
				s.Unread.Remove(id)
			} else {
				s.Read.Add(id)
			}
		}
	}
	s.Threshold = t
}

// countLess, sıralı ids içinde x'ten küçük eleman sayısı.
func countLess(ids []int64, x int64) int {
	i, _ := slices.BinarySearch(ids, x)
	return i
}

// satInc, id+1; math.MaxInt64'te taşmak yerine doyar.
func satInc(id int64) int64 {
	if id == math.MaxInt64 {
		return id
	}
	return id + 1
}
