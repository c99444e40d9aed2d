package cfg

// Chỉ tối đa các file dưới 384 KB mới tìm kiếm được qua GitHub API
const MaxSearchableFileSize = 393216

type MockLoader struct{}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (yl *MockLoader) Load() (*Config, error) {
	return &Config{
		// App
		App: App{
			Name:    "solidity-crawler",
			Version: "0.0.1",
		},

		// Mysql
		Mysql: Mysql{
			Host:                  "127.0.0.1",
			Password:              "root",
			Username:              "root",
			Port:                  "3306",
			Database:              "solidity_crawler",
			MaxIdleConnection:     10,
			MaxOpenConnection:     100,
			MaxLifeTimeConnection: 3600,
		},

		// GithubApi
		GithubApi: GithubApi{
			AccessToken:       "",
			SearchApiUrl:      "https://api.github.com/search/repositories",
			TreeApiUrl:        "https://api.github.com/repos/{repo}/git/trees/{branch}?recursive=1",
			CommitsApiUrl:     "https://api.github.com/repos/{repo}/commits",
			RawContentUrl:     "https://raw.githubusercontent.com/{repo}/{sha}/{path}",
			RateLimitResetMin: 5,
			SafetyMargin:      1,
			MaxRetries:        3,
			BackoffBaseMs:     1000,
			RequestTimeoutSec: 30,
		},

		// Crawler
		Crawler: Crawler{
			Version:         "v1",
			MinSize:         1,
			MaxSize:         MaxSearchableFileSize,
			StratumSize:     5,
			PerPage:         100,
			MaxResultWindow: 1000,
			Throttle:        true,
			SearchForks:     false,
			LicenseFilter:   false,
			StatsFile:       "sampling.csv",
		},

		// Kafka
		Kafka: Kafka{
			Brokers:       []string{"127.0.0.1:9092"},
			ConsumerGroup: "solidity-crawler",
			Producer: KafkaProducer{
				TopicRepo:   "crawler.repos",
				TopicFile:   "crawler.files",
				TopicCommit: "crawler.commits",
			},
		},
	}, nil
}
