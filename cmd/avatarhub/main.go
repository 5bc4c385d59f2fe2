// Package main 启动应用程序
package main

import "github.com/yeisme/avatarhub/pkg/cmd"

//	@title			avatarhub API
//	@version		1.0
//	@description	avatarhub 是一个社区头像画廊服务，支持上传头像代码与图片、检索排序分页以及每人一票的投票。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
