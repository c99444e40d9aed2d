package crawler

import (
	"fmt"
	"strings"

	"github.com/thep200/solidity-crawler/internal/stratum"
)

// Danh sách license mã nguồn mở dùng khi bật license filter. Lưu ý danh
// sách này có cả các viral license yêu cầu giữ nguyên license khi phân
// phối lại file đã chỉnh sửa.
var licenses = []string{
	"apache-2.0", "agpl-3.0", "bsd-2-clause", "bsd-3-clause", "bsl-1.0",
	"cc0-1.0", "epl-2.0", "gpl-2.0", "gpl-3.0", "lgpl-2.1", "mit",
	"mpl-2.0", "unlicense",
}

// buildQuery dựng search query cho một tầng: ngôn ngữ cố định, khoảng
// size của tầng, bộ lọc fork và license tùy theo cấu hình
func buildQuery(s *stratum.Stratum, license string, searchForks bool) string {
	query := fmt.Sprintf("language:Solidity size:%s fork:%v", s.QueryRange(), searchForks)
	if license != "" {
		query += " license:" + license
	}
	return query
}

// isSolidityFile kiểm tra path trong cây git có phải file Solidity không
func isSolidityFile(path string) bool {
	return strings.HasSuffix(path, ".sol") && len(path) > len(".sol")
}

// extractUserAndRepo phân tích full_name để lấy user và repo name
func extractUserAndRepo(fullName string) (string, string) {
	parts := strings.Split(fullName, "/")
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return "", fullName
}
