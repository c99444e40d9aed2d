package stratum

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Header của file thống kê, đồng thời là version của encoding.
// File không đúng header sẽ bị từ chối khi load thay vì tin vào state cũ.
var csvHeader = []string{
	"stratum_lower", "stratum_upper", "population_repo",
	"sample_repo", "sample_file", "sample_commit", "exhausted",
}

// CsvStore lưu SamplingState dưới dạng CSV, mỗi tầng một dòng, đọc được
// bằng mắt thường và mở được bằng bất kỳ công cụ bảng tính nào
type CsvStore struct {
	Path string
}

func NewCsvStore(path string) *CsvStore {
	return &CsvStore{Path: path}
}

func (c *CsvStore) Exists() bool {
	info, err := os.Stat(c.Path)
	return err == nil && !info.IsDir()
}

// Save ghi snapshot ra file tạm rồi rename để không bao giờ để lại file
// thống kê ghi dở khi bị ngắt giữa chừng
func (c *CsvStore) Save(strata []*Stratum) error {
	tmp := c.Path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("cannot create statistics file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return err
	}
	for _, s := range strata {
		row := []string{
			strconv.Itoa(s.Lower),
			strconv.Itoa(s.Upper),
			strconv.Itoa(s.Population),
			strconv.Itoa(s.SampledRepos),
			strconv.Itoa(s.SampledFiles),
			strconv.Itoa(s.SampledCommits),
			strconv.FormatBool(s.Exhausted),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, c.Path)
}

// Load đọc và validate snapshot từ file thống kê
func (c *CsvStore) Load() ([]*Stratum, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("cannot open statistics file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot parse statistics file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("statistics file %s is empty", c.Path)
	}

	if err := c.validateHeader(records[0]); err != nil {
		return nil, err
	}

	strata := make([]*Stratum, 0, len(records)-1)
	for i, row := range records[1:] {
		s, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("statistics file %s row %d: %w", c.Path, i+2, err)
		}
		strata = append(strata, s)
	}

	return strata, nil
}

func (c *CsvStore) validateHeader(row []string) error {
	if len(row) != len(csvHeader) {
		return fmt.Errorf("statistics file %s has unexpected header", c.Path)
	}
	for i, col := range csvHeader {
		if row[i] != col {
			return fmt.Errorf("statistics file %s has unexpected header column %q", c.Path, row[i])
		}
	}
	return nil
}

func parseRow(row []string) (*Stratum, error) {
	if len(row) != len(csvHeader) {
		return nil, fmt.Errorf("unexpected column count %d", len(row))
	}

	nums := make([]int, 6)
	for i := 0; i < 6; i++ {
		n, err := strconv.Atoi(row[i])
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", row[i])
		}
		nums[i] = n
	}
	exhausted, err := strconv.ParseBool(row[6])
	if err != nil {
		return nil, fmt.Errorf("invalid value %q", row[6])
	}

	s := &Stratum{
		Lower:          nums[0],
		Upper:          nums[1],
		Population:     nums[2],
		SampledRepos:   nums[3],
		SampledFiles:   nums[4],
		SampledCommits: nums[5],
		Exhausted:      exhausted,
	}
	if s.Upper <= s.Lower {
		return nil, fmt.Errorf("invalid stratum bounds %s", s)
	}

	return s, nil
}
