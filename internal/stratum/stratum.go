// Gói stratum cài đặt lấy mẫu phân tầng theo kích thước file để vượt qua
// giới hạn 1000 kết quả mỗi query của GitHub Search API. Miền kích thước
// [minSize, maxSize) được chia thành các tầng có độ rộng cố định; tầng nào
// có population vượt cửa sổ kết quả sẽ được tách đôi và xếp lại vào hàng đợi.

package stratum

import "fmt"

// Stratum là một khoảng kích thước nửa mở [Lower, Upper).
// Population = -1 nghĩa là chưa query lần nào.
type Stratum struct {
	Lower          int
	Upper          int
	Population     int
	SampledRepos   int
	SampledFiles   int
	SampledCommits int
	Exhausted      bool
}

func (s *Stratum) Width() int {
	return s.Upper - s.Lower
}

// QueryRange trả về bộ lọc size cho search query, GitHub dùng khoảng đóng
// nên cận trên là Upper-1
func (s *Stratum) QueryRange() string {
	if s.Width() == 1 {
		return fmt.Sprintf("%d", s.Lower)
	}
	return fmt.Sprintf("%d..%d", s.Lower, s.Upper-1)
}

func (s *Stratum) String() string {
	return fmt.Sprintf("[%d, %d)", s.Lower, s.Upper)
}
