package cmd

import (
	"Bt1QCast/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动1QCast服务器",
	Long:  `启动1QCast播客系统的HTTP服务器，同时运行元数据刷新与音频下载两个后台循环`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
