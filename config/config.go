package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	path   string
	Server Server `yaml:"server"` // http 服务
	MySQL  Mysql  `yaml:"mysql"`  // 数据库
	Gorm   Gorm   `yaml:"gorm"`   // gorm
	Chain  Chain  `yaml:"chain"`  // 链客户端
	IPFS   IPFS   `yaml:"ipfs"`   // 内容存储
	Mail   Mail   `yaml:"mail"`   // 邮件通知
}

var (
	once           sync.Once
	conf           *Config
	lastChangeTime time.Time
)

func init() {
	once.Do(func() {
		conf = new(Config)
	})
}

// checkConfigEnv 检查配置环境变量是否设置
func checkConfigEnv() error {
	conf.path = os.Getenv("CONF_DIR_PATH")
	if len(conf.path) == 0 {
		return errors.New("can not find config dir path")
	}

	return nil
}

// LoadConfig 加载配置文件
func LoadConfig() error {
	err := checkConfigEnv()
	if err != nil {
		return err
	}

	viper.AddConfigPath(conf.path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	err = viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("Fatal error config file: %w \n", err)
	}

	err = viper.Unmarshal(conf)
	if err != nil {
		return err
	}

	conf.ConfigFileChangeListen()

	return nil
}

// GetConfigInstance 获取配置实例
func GetConfigInstance() *Config {
	if conf != nil {
		return conf
	}
	// config 实例未初始化
	panic("config init error")
}

// 配置文件热更
func (confIns *Config) ConfigFileChangeListen() {
	viper.OnConfigChange(func(changeEvent fsnotify.Event) {
		if time.Since(lastChangeTime).Seconds() >= 1 {
			if changeEvent.Op.String() == "WRITE" {
				lastChangeTime = time.Now()
				err := viper.Unmarshal(conf)
				if err != nil {
					fmt.Println(err)
				}
			}
		}
	})
	viper.WatchConfig()
}

// Server http 服务配置
type Server struct {
	// 监听地址
	Host string `json:"host" yaml:"Host"`
	// 监听端口
	Port int `json:"port" yaml:"Port"`
	// 前端访问地址，用于拼接 verify url
	FrontendURL string `json:"frontendUrl" yaml:"FrontendURL"`
	// 上传文件大小上限（字节）
	MaxUploadBytes int64 `json:"maxUploadBytes" yaml:"MaxUploadBytes"`
	// 允许上传的文件后缀
	AllowedExtensions []string `json:"allowedExtensions" yaml:"AllowedExtensions"`
	// 会话有效期（小时）
	SessionTTLHours int `json:"sessionTtlHours" yaml:"SessionTTLHours"`
}

// AllowExtension 校验文件后缀是否在白名单内
func (s Server) AllowExtension(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	ext := strings.ToLower(filename[i+1:])
	for _, allowed := range s.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// Chain 链客户端配置
type Chain struct {
	// 节点 rpc 地址
	RpcURL string `json:"rpcUrl" yaml:"RpcURL"`
	// 链 id
	ChainID int64 `json:"chainId" yaml:"ChainID"`
	// 合约地址
	ContractAddress string `json:"contractAddress" yaml:"ContractAddress"`
	// 交易 gas 上限
	GasLimit uint64 `json:"gasLimit" yaml:"GasLimit"`
	// gas 单价（gwei），0 表示由节点建议
	GasPriceGwei int64 `json:"gasPriceGwei" yaml:"GasPriceGwei"`
	// 等待交易确认的超时时间（秒）
	ConfirmTimeoutSec int `json:"confirmTimeoutSec" yaml:"ConfirmTimeoutSec"`
	// 预充值账户池文件
	AccountsFile string `json:"accountsFile" yaml:"AccountsFile"`
	// 对账任务的默认起始区块
	DefaultBlock int64 `json:"defaultBlock" yaml:"DefaultBlock"`
	// 对账任务的轮询间隔（秒）
	ReconcileIntervalSec int `json:"reconcileIntervalSec" yaml:"ReconcileIntervalSec"`
}

// IPFS 内容存储配置
type IPFS struct {
	// ipfs api 地址
	APIAddr string `json:"apiAddr" yaml:"APIAddr"`
	// 公共网关地址，用于拼接文档访问 url
	Gateway string `json:"gateway" yaml:"Gateway"`
}

// Mail smtp 邮件配置
type Mail struct {
	Host     string `json:"host" yaml:"Host"`
	Port     int    `json:"port" yaml:"Port"`
	Username string `json:"username" yaml:"Username"`
	Password string `json:"password" yaml:"Password"`
	From     string `json:"from" yaml:"From"`
	// 未开启时所有通知静默跳过
	Enabled bool `json:"enabled" yaml:"Enabled"`
}

// mysql数据库配置
type Mysql struct {
	// ip
	Host string `json:"host" yaml:"Host"`
	// 端口
	Port int `json:"port" yaml:"Port"`
	// mysql cli用户
	User string `json:"user" yaml:"User"`
	// 密码
	Password string `json:"password" yaml:"Password"`
	// 数据库
	DBName string `json:"dbName" yaml:"DBName"`
	// 其他参数
	Parameters string `json:"parameters" yaml:"Parameters"`
}

// DSN 数据库连接串
func (m Mysql) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		m.User, m.Password, m.Host, m.Port, m.DBName, m.Parameters)
}

// Gorm 框架的相关配置
type Gorm struct {
	// 日志打印级别
	Debug bool `json:"debug" yaml:"Debug"`
	// 数据库类型：例如mysql
	DBType            string `json:"dbType" yaml:"DBType"`
	MaxLifetime       int    `json:"maxLifetime" yaml:"MaxLifetime"`
	MaxOpenConns      int    `json:"maxOpenConns" yaml:"MaxOpenConns"`
	MaxIdleConns      int    `json:"maxIdleConns" yaml:"MaxIdleConns"`
	EnableAutoMigrate bool   `json:"enableAutoMigrate" yaml:"EnableAutoMigrate"`
	// 是否开启日志打印
	IsLoggerOn bool `json:"isLoggerOn"`
}
