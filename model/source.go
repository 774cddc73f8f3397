package model

// Source 表示一个逻辑订阅源：一个 key 对应一组有序的视频/播放列表 URL
// 由外部配置文件定义，核心组件只读，每个刷新周期重新加载
type Source struct {
	Key  string   `json:"key"`
	URLs []string `json:"urls"`
}
