package cfg

type (
	App struct {
		Name    string
		Version string
	}

	Mysql struct {
		Host                  string
		Port                  string
		Username              string
		Password              string
		Database              string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
	}

	// GithubApi chứa các endpoint và tham số retry cho GitHub API.
	// Các placeholder {repo}, {branch}, {sha}, {path} được thay thế khi gọi.
	GithubApi struct {
		AccessToken       string
		SearchApiUrl      string
		TreeApiUrl        string
		CommitsApiUrl     string
		RawContentUrl     string
		RateLimitResetMin int
		SafetyMargin      int
		MaxRetries        int
		BackoffBaseMs     int
		RequestTimeoutSec int
	}

	// Crawler chứa các tham số điều khiển quá trình lấy mẫu phân tầng.
	// MinSize/MaxSize/StratumSize tính theo byte của file.
	Crawler struct {
		Version         string
		MinSize         int
		MaxSize         int
		StratumSize     int
		PerPage         int
		MaxResultWindow int
		Throttle        bool
		SearchForks     bool
		LicenseFilter   bool
		StatsFile       string
	}

	KafkaProducer struct {
		TopicRepo   string
		TopicFile   string
		TopicCommit string
	}

	Kafka struct {
		Brokers       []string
		ConsumerGroup string
		Producer      KafkaProducer
	}
)

type Config struct {
	App       App
	Mysql     Mysql
	GithubApi GithubApi
	Crawler   Crawler
	Kafka     Kafka
}
