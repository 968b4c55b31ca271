package scene

const DefaultSceneID = "clinic"

// Builtin returns the hospital-visit walkthrough. Jump targets point at the
// chapter anchors of the accompanying video.
func Builtin() Scene {
	return Scene{
		ID:       DefaultSceneID,
		Title:    "医院就诊流程",
		VideoKey: "scenes/clinic.mp4",
		Questions: []Question{
			{
				ID:          "reg",
				AppearTime:  5,
				Text:        "你知道下一步是干什么吗？（到医院后首先要做什么）",
				PauseOnShow: true,
				Options: []Option{
					{Label: "挂号/分诊", JumpTo: 10},
					{Label: "直接去诊室", JumpTo: 40},
					{Label: "去缴费窗口", JumpTo: 75},
				},
			},
			{
				ID:          "wait",
				AppearTime:  35,
				Text:        "挂号完成后，下一步最好是？",
				PauseOnShow: true,
				Options: []Option{
					{Label: "候诊等待叫号", JumpTo: 42},
					{Label: "直接做检查", JumpTo: 90},
				},
			},
			{
				ID:          "pay",
				AppearTime:  85,
				Text:        "医生安排检查后，下一步应该？",
				PauseOnShow: true,
				Options: []Option{
					{Label: "缴费并前往检查科室", JumpTo: 95},
					{Label: "回家等待结果", JumpTo: 150},
				},
			},
			{
				ID:          "review",
				AppearTime:  145,
				Text:        "检查完成拿到结果后，下一步？",
				PauseOnShow: true,
				Options: []Option{
					{Label: "回到诊室复诊", JumpTo: 155},
					{Label: "直接去药房取药", JumpTo: 180},
				},
			},
			{
				ID:          "pharmacy",
				AppearTime:  175,
				Text:        "医生开具处方后，下一步应该？",
				PauseOnShow: true,
				Options: []Option{
					{Label: "缴费后去药房取药", JumpTo: 182},
					{Label: "结束就医流程", JumpTo: 210},
				},
			},
		},
	}
}
